package airports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avolkov/towertune/pkg/logger"
)

// Import logger functions
var (
	String = logger.String
)

// Config holds airport metadata lookup settings
type Config struct {
	// MetadataURL is a template with one %s placeholder for the ICAO code.
	MetadataURL string
	// APIToken is appended as the apiToken query parameter when set.
	APIToken string
	Timeout  time.Duration
}

// AirportInfo is the subset of airport metadata the almanac needs.
type AirportInfo struct {
	ICAO      string
	Name      string
	Latitude  float64
	Longitude float64
	Timezone  string
}

// flexFloat tolerates coordinate fields encoded as either JSON numbers
// or strings, which varies across metadata providers.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

type metadataResponse struct {
	ICAOCode  string    `json:"icao_code"`
	Name      string    `json:"name"`
	Latitude  flexFloat `json:"latitude_deg"`
	Longitude flexFloat `json:"longitude_deg"`
	Timezone  string    `json:"timezone"`
}

// Client fetches airport metadata over HTTP. Lookups are cached for
// the life of the process, so repeated almanac calls for the same
// airport cost one request.
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *Cache
	logger     *logger.Logger
}

// NewClient creates a new airport metadata client
func NewClient(config Config, log *logger.Logger) *Client {
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		cache:      NewCache(),
		logger:     log.Named("airports"),
	}
}

// Info returns metadata for one airport, from cache when possible
func (c *Client) Info(ctx context.Context, icao string) (*AirportInfo, error) {
	icao = strings.ToUpper(strings.TrimSpace(icao))
	if info, ok := c.cache.Get(icao); ok {
		return info, nil
	}

	reqURL, err := c.buildURL(icao)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for %s: %w", icao, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata request for %s returned status %d", icao, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata response: %w", err)
	}

	var meta metadataResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata for %s: %w", icao, err)
	}

	info := &AirportInfo{
		ICAO:      icao,
		Name:      meta.Name,
		Latitude:  float64(meta.Latitude),
		Longitude: float64(meta.Longitude),
		Timezone:  meta.Timezone,
	}
	if meta.ICAOCode != "" {
		info.ICAO = strings.ToUpper(meta.ICAOCode)
	}

	c.cache.Set(icao, info)
	c.logger.Debug("Airport metadata fetched",
		String("icao", icao),
		String("timezone", info.Timezone),
	)
	return info, nil
}

// buildURL expands the metadata template and appends the API token
// when one is configured.
func (c *Client) buildURL(icao string) (string, error) {
	raw := fmt.Sprintf(c.config.MetadataURL, icao)
	if c.config.APIToken == "" {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid metadata URL: %w", err)
	}
	q := u.Query()
	q.Set("apiToken", c.config.APIToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
