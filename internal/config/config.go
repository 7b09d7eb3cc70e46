package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Logging   LoggingConfig   `toml:"logging"`   // Application logging settings
	Catalog   CatalogConfig   `toml:"catalog"`   // Channel catalog location and update settings
	Favorites FavoritesConfig `toml:"favorites"` // Favorites store settings
	Fuzzy     FuzzyConfig     `toml:"fuzzy"`     // External fuzzy matcher settings
	Weather   WeatherConfig   `toml:"wx"`        // METAR fetching settings
	Airports  AirportsConfig  `toml:"airports"`  // Airport metadata lookup settings
	Almanac   AlmanacConfig   `toml:"almanac"`   // Sunrise/sunset lookup settings
	Briefing  BriefingConfig  `toml:"briefing"`  // Plain-language weather briefing settings
	Player    PlayerConfig    `toml:"player"`    // External media player settings
	Webcam    WebcamConfig    `toml:"webcam"`    // Webcam opening settings
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// CatalogConfig contains channel catalog configuration
type CatalogConfig struct {
	Path          string `toml:"path"`            // Path to the catalog CSV file
	UpdateURL     string `toml:"update_url"`      // Direct URL to download a fresh catalog CSV from
	UpdatePageURL string `toml:"update_page_url"` // Index page to scrape for the newest .csv link (used when update_url is empty)
}

// FavoritesConfig contains favorites store configuration
type FavoritesConfig struct {
	Path       string `toml:"path"`        // Path to the favorites SQLite database file
	MaxEntries int    `toml:"max_entries"` // Maximum number of favorites kept (lowest-ranked entries are evicted)
	Fallback   string `toml:"fallback"`    // Selection mode when no favorites resolve: "guided" or "fuzzy"
}

// FuzzyConfig contains external fuzzy matcher configuration
type FuzzyConfig struct {
	Command string `toml:"command"` // Matcher command line (e.g., "fzf --exact"); receives lines on stdin
}

// WeatherConfig contains METAR fetching configuration
type WeatherConfig struct {
	MetarURL    string `toml:"metar_url"`       // URL template for raw METAR text with one %s placeholder for the ICAO code
	TimeoutSecs int    `toml:"timeout_seconds"` // HTTP timeout for METAR requests in seconds
}

// AirportsConfig contains airport metadata lookup configuration
type AirportsConfig struct {
	MetadataURL string `toml:"metadata_url"`    // URL template for airport metadata JSON with one %s placeholder for the ICAO code
	APITokenEnv string `toml:"api_token_env"`   // Environment variable holding the metadata API token (appended as apiToken when set)
	TimeoutSecs int    `toml:"timeout_seconds"` // HTTP timeout for metadata requests in seconds
}

// AlmanacConfig contains sunrise/sunset lookup configuration
type AlmanacConfig struct {
	SunURL      string `toml:"sun_url"`         // URL template for sunrise/sunset JSON with %f placeholders for latitude and longitude
	TimeoutSecs int    `toml:"timeout_seconds"` // HTTP timeout for sunrise/sunset requests in seconds
}

// BriefingConfig contains plain-language weather briefing configuration
type BriefingConfig struct {
	Enabled     bool   `toml:"enabled"`         // Enable the Gemini-backed briefing after resolution
	Model       string `toml:"model"`           // Gemini model name (e.g., "gemini-2.0-flash")
	APIKeyEnv   string `toml:"api_key_env"`     // Environment variable holding the Gemini API key
	TimeoutSecs int    `toml:"timeout_seconds"` // Timeout for briefing generation in seconds
}

// PlayerConfig contains external media player configuration
type PlayerConfig struct {
	Command      string   `toml:"command"`       // Player binary (e.g., "mpv"); the stream URL is passed as the last argument
	Flags        []string `toml:"flags"`         // Flags for the stream player
	AmbientURL   string   `toml:"ambient_url"`   // Ambient music stream URL launched alongside the channel (empty disables)
	AmbientFlags []string `toml:"ambient_flags"` // Flags for the ambient music player
}

// WebcamConfig contains webcam opening configuration
type WebcamConfig struct {
	Enabled bool   `toml:"enabled"` // Open the channel's webcam URL after resolution when present
	Command string `toml:"command"` // Opener command (e.g., "xdg-open")
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback attempts to load configuration from multiple locations:
// 1. User-specified path (if provided)
// 2. configs/config.toml
// 3. config.toml (root directory)
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // Location in configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			// File exists, try to load it
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate checks the configuration for errors and fills in defaults
func (c *Config) Validate() error {
	// Validate logging config
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	// Validate catalog config
	if c.Catalog.Path == "" {
		c.Catalog.Path = "data/catalog.csv"
	}

	// Validate favorites config
	if c.Favorites.Path == "" {
		c.Favorites.Path = "data/favorites.db"
	}
	if c.Favorites.MaxEntries == 0 {
		c.Favorites.MaxEntries = 10
	}
	if c.Favorites.MaxEntries < 1 {
		return fmt.Errorf("invalid favorites max_entries: %d (must be >= 1)", c.Favorites.MaxEntries)
	}
	if c.Favorites.Fallback == "" {
		c.Favorites.Fallback = "guided"
	}
	if c.Favorites.Fallback != "guided" && c.Favorites.Fallback != "fuzzy" {
		return fmt.Errorf("invalid favorites fallback: %s (must be 'guided' or 'fuzzy')", c.Favorites.Fallback)
	}

	// Validate fuzzy matcher config
	if c.Fuzzy.Command == "" {
		c.Fuzzy.Command = "fzf --exact"
	}

	// Validate weather config
	if c.Weather.MetarURL == "" {
		c.Weather.MetarURL = "https://aviationweather.gov/api/data/metar?ids=%s&format=raw&taf=false&hours=2"
	}
	if !strings.Contains(c.Weather.MetarURL, "%s") {
		return fmt.Errorf("invalid wx metar_url: %s (must contain a %%s placeholder for the ICAO code)", c.Weather.MetarURL)
	}
	if c.Weather.TimeoutSecs <= 0 {
		c.Weather.TimeoutSecs = 10
	}

	// Validate airports config
	if c.Airports.MetadataURL == "" {
		c.Airports.MetadataURL = "https://airportdb.io/api/v1/airport/%s"
	}
	if !strings.Contains(c.Airports.MetadataURL, "%s") {
		return fmt.Errorf("invalid airports metadata_url: %s (must contain a %%s placeholder for the ICAO code)", c.Airports.MetadataURL)
	}
	if c.Airports.APITokenEnv == "" {
		c.Airports.APITokenEnv = "AIRPORTDB_API_TOKEN"
	}
	if c.Airports.TimeoutSecs <= 0 {
		c.Airports.TimeoutSecs = 10
	}

	// Validate almanac config
	if c.Almanac.SunURL == "" {
		c.Almanac.SunURL = "https://api.sunrise-sunset.org/json?lat=%f&lng=%f&formatted=0"
	}
	if c.Almanac.TimeoutSecs <= 0 {
		c.Almanac.TimeoutSecs = 10
	}

	// Validate briefing config
	if c.Briefing.Model == "" {
		c.Briefing.Model = "gemini-2.0-flash"
	}
	if c.Briefing.APIKeyEnv == "" {
		c.Briefing.APIKeyEnv = "GEMINI_API_KEY"
	}
	if c.Briefing.TimeoutSecs <= 0 {
		c.Briefing.TimeoutSecs = 30
	}

	// Validate player config
	if c.Player.Command == "" {
		c.Player.Command = "mpv"
	}
	if len(c.Player.Flags) == 0 {
		c.Player.Flags = []string{"--no-video"}
	}
	if len(c.Player.AmbientFlags) == 0 {
		c.Player.AmbientFlags = []string{"--no-video", "--volume=40"}
	}

	// Validate webcam config
	if c.Webcam.Command == "" {
		c.Webcam.Command = "xdg-open"
	}

	return nil
}
