package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/avolkov/towertune/internal/airports"
	"github.com/avolkov/towertune/internal/almanac"
	"github.com/avolkov/towertune/internal/briefing"
	"github.com/avolkov/towertune/internal/catalog"
	"github.com/avolkov/towertune/internal/config"
	"github.com/avolkov/towertune/internal/player"
	"github.com/avolkov/towertune/internal/selection"
	"github.com/avolkov/towertune/internal/storage/sqlite"
	"github.com/avolkov/towertune/internal/weather"
	"github.com/avolkov/towertune/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	fuzzyMode := flag.Bool("fuzzy", false, "Pick a channel with the fuzzy matcher instead of the guided menus")
	favoritesMode := flag.Bool("favorites", false, "Pick a channel from the favorites list")
	icao := flag.String("icao", "", "Resolve a channel for this ICAO code directly")
	randomMode := flag.Bool("random", false, "Pick a random channel (scoped to the airport when -icao is set)")
	updateCatalog := flag.Bool("update-catalog", false, "Download the latest catalog CSV and exit")
	noWeather := flag.Bool("no-weather", false, "Skip the weather and almanac block")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("towertune", Version)
		return
	}

	// Pick up API keys from a local .env if one exists
	_ = godotenv.Load()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting towertune",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	ctx := context.Background()

	if *updateCatalog {
		fetcher := catalog.NewFetcher(log)
		if err := fetcher.Update(ctx, cfg.Catalog.UpdateURL, cfg.Catalog.UpdatePageURL, cfg.Catalog.Path); err != nil {
			log.Error("Catalog update failed", logger.Error(err))
			os.Exit(1)
		}
		fmt.Println("Catalog updated:", cfg.Catalog.Path)
		return
	}

	store, err := catalog.Load(cfg.Catalog.Path, log)
	if err != nil {
		log.Error("Failed to load catalog", logger.Error(err), logger.String("path", cfg.Catalog.Path))
		if errors.Is(err, catalog.ErrCatalogNotFound) {
			fmt.Fprintln(os.Stderr, "No catalog found. Run with -update-catalog to download one.")
		}
		os.Exit(1)
	}

	favStore, err := sqlite.NewFavoritesStore(cfg.Favorites.Path, cfg.Favorites.MaxEntries, log)
	if err != nil {
		log.Error("Failed to open favorites store", logger.Error(err), logger.String("path", cfg.Favorites.Path))
		os.Exit(1)
	}
	defer favStore.Close()

	engine := selection.NewEngine(
		store,
		favStore,
		selection.NewTerminalPrompter(os.Stdin, os.Stdout),
		selection.NewExecMatcher(cfg.Fuzzy.Command),
		selection.Config{FavoritesFallback: cfg.Favorites.Fallback},
		log,
	)

	res, err := resolve(engine, *icao, *randomMode, *fuzzyMode, *favoritesMode)
	if err != nil {
		if errors.Is(err, selection.ErrNoMatchSelected) {
			fmt.Println("Nothing selected.")
			return
		}
		log.Error("Selection failed", logger.Error(err))
		os.Exit(1)
	}

	fmt.Printf("\nTuning in: %s %s (%s)\n", res.Record.AirportName, res.Record.ChannelDescription, res.Record.ICAO)

	if !*noWeather {
		printConditions(ctx, cfg, log, res)
	}

	coord := player.NewCoordinator(player.Config{
		Command:       cfg.Player.Command,
		Flags:         cfg.Player.Flags,
		AmbientURL:    cfg.Player.AmbientURL,
		AmbientFlags:  cfg.Player.AmbientFlags,
		WebcamEnabled: cfg.Webcam.Enabled,
		WebcamCommand: cfg.Webcam.Command,
	}, log)

	if err := coord.Play(ctx, res); err != nil {
		log.Error("Playback failed", logger.Error(err))
		os.Exit(1)
	}
}

// resolve dispatches to the selection mode picked on the command line.
// Direct ICAO lookup wins over the mode flags.
func resolve(engine *selection.Engine, icao string, random, fuzzy, favorites bool) (selection.Result, error) {
	switch {
	case icao != "":
		return engine.ByICAO(icao, random)
	case random:
		return engine.Random()
	case fuzzy:
		return engine.Fuzzy()
	case favorites:
		return engine.Favorites()
	default:
		return engine.Guided()
	}
}

// printConditions shows the decoded weather, the airport almanac and,
// when configured, a plain-language briefing. Every lookup degrades to
// a log line; none of them can stop playback.
func printConditions(ctx context.Context, cfg *config.Config, log *logger.Logger, res selection.Result) {
	wxClient := weather.NewClient(weather.Config{
		MetarURL: cfg.Weather.MetarURL,
		Timeout:  time.Duration(cfg.Weather.TimeoutSecs) * time.Second,
	}, log)

	station, raw, err := wxClient.RawWithFallback(ctx, res.Record.ICAO, res.Record.NearbyICAOs)
	if err != nil {
		log.Warn("No weather available", logger.String("icao", res.Record.ICAO), logger.Error(err))
		return
	}
	decoded := weather.Decode(raw)

	header := fmt.Sprintf("Weather at %s", station)
	if station != strings.ToUpper(strings.TrimSpace(res.Record.ICAO)) {
		header += " (nearby station)"
	}
	fmt.Println()
	fmt.Println(header)
	fmt.Printf("  %s\n", decoded.Raw)
	fmt.Printf("  Wind:        %s\n", decoded.Wind)
	fmt.Printf("  Visibility:  %s\n", decoded.Visibility)
	fmt.Printf("  Ceiling:     %s\n", decoded.Ceiling)
	fmt.Printf("  Temperature: %s\n", decoded.Temperature)
	fmt.Printf("  Dew point:   %s\n", decoded.DewPoint)
	fmt.Printf("  Pressure:    %s\n", decoded.Pressure)

	printAlmanac(ctx, cfg, log, res.Record.ICAO)
	printBriefing(ctx, cfg, log, res.Record.ICAO, decoded)
}

func printAlmanac(ctx context.Context, cfg *config.Config, log *logger.Logger, icao string) {
	client := airports.NewClient(airports.Config{
		MetadataURL: cfg.Airports.MetadataURL,
		APIToken:    os.Getenv(cfg.Airports.APITokenEnv),
		Timeout:     time.Duration(cfg.Airports.TimeoutSecs) * time.Second,
	}, log)

	info, err := client.Info(ctx, icao)
	if err != nil {
		log.Warn("No airport metadata available", logger.String("icao", icao), logger.Error(err))
		return
	}

	service := almanac.NewService(almanac.Config{
		SunURL:  cfg.Almanac.SunURL,
		Timeout: time.Duration(cfg.Almanac.TimeoutSecs) * time.Second,
	}, log)
	snapshot := service.Snapshot(ctx, info, time.Now())

	fmt.Printf("  Local time:  %s\n", snapshot.LocalTime)
	fmt.Printf("  Sunrise:     %s\n", snapshot.Sunrise)
	fmt.Printf("  Sunset:      %s\n", snapshot.Sunset)
	fmt.Printf("  Declination: %s\n", snapshot.MagneticDeclination)
}

func printBriefing(ctx context.Context, cfg *config.Config, log *logger.Logger, icao string, decoded weather.DecodedMetar) {
	if !cfg.Briefing.Enabled {
		return
	}
	apiKey := os.Getenv(cfg.Briefing.APIKeyEnv)
	if apiKey == "" {
		log.Debug("Briefing enabled but no API key is set", logger.String("env", cfg.Briefing.APIKeyEnv))
		return
	}

	briefer, err := briefing.NewBriefer(ctx, briefing.Config{
		Model:   cfg.Briefing.Model,
		APIKey:  apiKey,
		Timeout: time.Duration(cfg.Briefing.TimeoutSecs) * time.Second,
	}, log)
	if err != nil {
		log.Warn("Briefing unavailable", logger.Error(err))
		return
	}

	text, err := briefer.Briefing(ctx, icao, decoded)
	if err != nil {
		log.Warn("Briefing failed", logger.Error(err))
		return
	}
	fmt.Printf("\n%s\n", text)
}
