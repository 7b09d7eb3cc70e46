package almanac

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"

	"github.com/avolkov/towertune/internal/airports"
	"github.com/avolkov/towertune/pkg/logger"
)

// Import logger functions
var (
	String = logger.String
	Error  = logger.Error
)

// Unavailable is shown for any field that could not be determined.
const Unavailable = "Unavailable"

const clockFormat = "15:04 MST"

// Config holds almanac lookup settings
type Config struct {
	// SunURL is a template with %f placeholders for latitude and longitude.
	SunURL  string
	Timeout time.Duration
}

// AlmanacInfo carries the formatted time-of-day context for an airport.
// Every field degrades independently.
type AlmanacInfo struct {
	LocalTime           string
	Sunrise             string
	Sunset              string
	MagneticDeclination string
}

type sunResponse struct {
	Results struct {
		Sunrise string `json:"sunrise"`
		Sunset  string `json:"sunset"`
	} `json:"results"`
	Status string `json:"status"`
}

// Service computes local time, sun times and magnetic declination for
// an airport.
type Service struct {
	config     Config
	httpClient *http.Client
	logger     *logger.Logger
}

// NewService creates a new almanac service
func NewService(config Config, log *logger.Logger) *Service {
	return &Service{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     log.Named("almanac"),
	}
}

// Snapshot returns the almanac for an airport at the given instant.
// It never fails; fields the lookup could not determine come back as
// Unavailable.
func (s *Service) Snapshot(ctx context.Context, info *airports.AirportInfo, now time.Time) AlmanacInfo {
	out := AlmanacInfo{
		LocalTime:           Unavailable,
		Sunrise:             Unavailable,
		Sunset:              Unavailable,
		MagneticDeclination: Unavailable,
	}
	if info == nil {
		return out
	}

	loc, err := time.LoadLocation(info.Timezone)
	if err != nil {
		s.logger.Warn("Unknown airport timezone", String("timezone", info.Timezone), Error(err))
		loc = nil
	} else {
		out.LocalTime = now.In(loc).Format(clockFormat)
	}

	if sunrise, sunset, err := s.sunTimes(ctx, info.Latitude, info.Longitude); err != nil {
		s.logger.Warn("Sunrise lookup failed", String("icao", info.ICAO), Error(err))
	} else if loc != nil {
		out.Sunrise = sunrise.In(loc).Format(clockFormat)
		out.Sunset = sunset.In(loc).Format(clockFormat)
	} else {
		out.Sunrise = sunrise.UTC().Format(clockFormat)
		out.Sunset = sunset.UTC().Format(clockFormat)
	}

	if d, err := declination(info.Latitude, info.Longitude, now); err != nil {
		s.logger.Warn("Declination calculation failed", String("icao", info.ICAO), Error(err))
	} else {
		out.MagneticDeclination = formatDeclination(d)
	}
	return out
}

// sunTimes fetches sunrise and sunset as UTC instants.
func (s *Service) sunTimes(ctx context.Context, lat, lon float64) (time.Time, time.Time, error) {
	url := fmt.Sprintf(s.config.SunURL, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to create sunrise request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to fetch sun times: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, time.Time{}, fmt.Errorf("sunrise request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to read sunrise response: %w", err)
	}

	var sun sunResponse
	if err := json.Unmarshal(body, &sun); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to parse sunrise response: %w", err)
	}
	if sun.Status != "OK" {
		return time.Time{}, time.Time{}, fmt.Errorf("sunrise API status %q", sun.Status)
	}

	sunrise, err := time.Parse(time.RFC3339, sun.Results.Sunrise)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid sunrise time %q: %w", sun.Results.Sunrise, err)
	}
	sunset, err := time.Parse(time.RFC3339, sun.Results.Sunset)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid sunset time %q: %w", sun.Results.Sunset, err)
	}
	return sunrise, sunset, nil
}

// declination computes the magnetic declination at ground level for a
// position and time. Returns declination in degrees (+East, -West).
func declination(lat, lon float64, date time.Time) (float64, error) {
	loc := egm96.NewLocationGeodetic(lat, lon, 0)
	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return 0, err
	}
	return mag.D(), nil
}

func formatDeclination(d float64) string {
	dir := "E"
	if d < 0 {
		dir = "W"
	}
	return fmt.Sprintf("%.1f° %s", math.Abs(d), dir)
}
