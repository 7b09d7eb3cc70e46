package almanac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/avolkov/towertune/internal/airports"
	"github.com/avolkov/towertune/pkg/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return log
}

func newTestService(t *testing.T, serverURL string) *Service {
	t.Helper()
	return NewService(Config{
		SunURL:  serverURL + "/json?lat=%f&lng=%f&formatted=0",
		Timeout: 5 * time.Second,
	}, newTestLogger(t))
}

func requireTZ(t *testing.T, name string) {
	t.Helper()
	if _, err := time.LoadLocation(name); err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}
}

var kjfk = &airports.AirportInfo{
	ICAO:      "KJFK",
	Name:      "John F Kennedy International Airport",
	Latitude:  40.639801,
	Longitude: -73.7789,
	Timezone:  "America/New_York",
}

func TestSnapshotRendersAirportLocalTimes(t *testing.T) {
	requireTZ(t, "America/New_York")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{"sunrise":"2022-06-01T09:26:00+00:00","sunset":"2022-06-02T00:22:00+00:00"},"status":"OK"}`))
	}))
	defer server.Close()

	now := time.Date(2022, 6, 1, 16, 0, 0, 0, time.UTC)
	info := newTestService(t, server.URL).Snapshot(context.Background(), kjfk, now)

	if info.LocalTime != "12:00 EDT" {
		t.Errorf("expected local time 12:00 EDT, got %q", info.LocalTime)
	}
	if info.Sunrise != "05:26 EDT" {
		t.Errorf("expected sunrise 05:26 EDT, got %q", info.Sunrise)
	}
	if info.Sunset != "20:22 EDT" {
		t.Errorf("expected sunset 20:22 EDT, got %q", info.Sunset)
	}
}

func TestSnapshotDeclination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	now := time.Date(2022, 6, 1, 16, 0, 0, 0, time.UTC)
	info := newTestService(t, server.URL).Snapshot(context.Background(), kjfk, now)

	// New York sits well west of the agonic line.
	if matched := regexp.MustCompile(`^\d+\.\d° W$`).MatchString(info.MagneticDeclination); !matched {
		t.Errorf("expected a westerly declination, got %q", info.MagneticDeclination)
	}
}

func TestSnapshotSunLookupFailureDegrades(t *testing.T) {
	requireTZ(t, "America/New_York")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{"sunrise":"","sunset":""},"status":"INVALID_REQUEST"}`))
	}))
	defer server.Close()

	now := time.Date(2022, 6, 1, 16, 0, 0, 0, time.UTC)
	info := newTestService(t, server.URL).Snapshot(context.Background(), kjfk, now)

	if info.Sunrise != Unavailable || info.Sunset != Unavailable {
		t.Errorf("expected unavailable sun times, got %q / %q", info.Sunrise, info.Sunset)
	}
	// The other fields are unaffected
	if info.LocalTime == Unavailable {
		t.Error("local time should not depend on the sun lookup")
	}
}

func TestSnapshotUnknownTimezone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{"sunrise":"2022-06-01T09:26:00+00:00","sunset":"2022-06-02T00:22:00+00:00"},"status":"OK"}`))
	}))
	defer server.Close()

	alien := &airports.AirportInfo{ICAO: "ZZZZ", Latitude: 40, Longitude: -73, Timezone: "Nowhere/Imaginary"}
	now := time.Date(2022, 6, 1, 16, 0, 0, 0, time.UTC)
	info := newTestService(t, server.URL).Snapshot(context.Background(), alien, now)

	if info.LocalTime != Unavailable {
		t.Errorf("expected unavailable local time, got %q", info.LocalTime)
	}
	// Sun times fall back to UTC rendering
	if info.Sunrise != "09:26 UTC" {
		t.Errorf("expected sunrise 09:26 UTC, got %q", info.Sunrise)
	}
}

func TestSnapshotNilAirport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no lookup should happen without airport metadata")
	}))
	defer server.Close()

	info := newTestService(t, server.URL).Snapshot(context.Background(), nil, time.Now())
	if info.LocalTime != Unavailable || info.Sunrise != Unavailable || info.Sunset != Unavailable || info.MagneticDeclination != Unavailable {
		t.Errorf("expected every field unavailable, got %+v", info)
	}
}
