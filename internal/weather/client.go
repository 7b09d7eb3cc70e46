package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/avolkov/towertune/pkg/logger"
)

// Import logger functions
var (
	String = logger.String
	Error  = logger.Error
)

// Client fetches raw METAR text over HTTP. Each station is fetched at
// most once per process; a failed fetch degrades to Unavailable fields
// upstream instead of retrying.
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *Cache
	logger     *logger.Logger
}

// NewClient creates a new METAR client
func NewClient(config Config, log *logger.Logger) *Client {
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		cache:      NewCache(),
		logger:     log.Named("weather-client"),
	}
}

// Raw returns the raw METAR text for a station
func (c *Client) Raw(ctx context.Context, icao string) (string, error) {
	icao = strings.ToUpper(strings.TrimSpace(icao))
	if raw, ok := c.cache.Get(icao); ok {
		return raw, nil
	}

	url := fmt.Sprintf(c.config.MetarURL, icao)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create METAR request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch METAR for %s: %w", icao, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("METAR request for %s returned status %d", icao, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read METAR response: %w", err)
	}

	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return "", fmt.Errorf("no METAR data found for %s", icao)
	}
	// The endpoint may return several observations; the first line is
	// the latest one.
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}

	c.cache.Set(icao, raw)
	c.logger.Debug("Fetched METAR", String("station", icao), String("raw", raw))
	return raw, nil
}

// RawWithFallback tries the station itself, then each nearby station in
// order. Returns the report and the canonical code of the station that
// produced it.
func (c *Client) RawWithFallback(ctx context.Context, icao string, nearby []string) (string, string, error) {
	stations := append([]string{icao}, nearby...)
	var lastErr error
	for _, station := range stations {
		station = strings.ToUpper(strings.TrimSpace(station))
		raw, err := c.Raw(ctx, station)
		if err == nil {
			return station, raw, nil
		}
		lastErr = err
		c.logger.Debug("METAR unavailable", String("station", station), Error(err))
	}
	return "", "", fmt.Errorf("no METAR available for %s or nearby stations: %w", icao, lastErr)
}
