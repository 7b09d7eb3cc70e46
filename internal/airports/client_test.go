package airports

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

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

func newTestClient(t *testing.T, serverURL, token string) *Client {
	t.Helper()
	return NewClient(Config{
		MetadataURL: serverURL + "/api/v1/airport/%s",
		APIToken:    token,
		Timeout:     5 * time.Second,
	}, newTestLogger(t))
}

func TestInfoParsesNumericCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"icao_code":"KJFK","name":"John F Kennedy International Airport","latitude_deg":40.639801,"longitude_deg":-73.7789,"timezone":"America/New_York"}`))
	}))
	defer server.Close()

	info, err := newTestClient(t, server.URL, "").Info(context.Background(), "kjfk")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.ICAO != "KJFK" {
		t.Errorf("expected ICAO KJFK, got %q", info.ICAO)
	}
	if info.Latitude != 40.639801 || info.Longitude != -73.7789 {
		t.Errorf("unexpected coordinates: %f, %f", info.Latitude, info.Longitude)
	}
	if info.Timezone != "America/New_York" {
		t.Errorf("expected America/New_York, got %q", info.Timezone)
	}
}

func TestInfoParsesStringCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"icao_code":"EDDF","name":"Frankfurt am Main","latitude_deg":"50.033333","longitude_deg":"8.570556","timezone":"Europe/Berlin"}`))
	}))
	defer server.Close()

	info, err := newTestClient(t, server.URL, "").Info(context.Background(), "EDDF")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Latitude != 50.033333 || info.Longitude != 8.570556 {
		t.Errorf("unexpected coordinates: %f, %f", info.Latitude, info.Longitude)
	}
}

func TestInfoFetchesOncePerAirport(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"icao_code":"CYYZ","name":"Toronto Pearson","latitude_deg":43.6772,"longitude_deg":-79.6306,"timezone":"America/Toronto"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	for i := 0; i < 3; i++ {
		if _, err := client.Info(context.Background(), "CYYZ"); err != nil {
			t.Fatalf("Info call %d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected 1 fetch for 3 lookups, got %d", got)
	}
}

func TestInfoAppendsAPIToken(t *testing.T) {
	var gotToken string
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("apiToken")
		gotPath = r.URL.Path
		w.Write([]byte(`{"icao_code":"KORD","name":"O'Hare","latitude_deg":41.9786,"longitude_deg":-87.9048,"timezone":"America/Chicago"}`))
	}))
	defer server.Close()

	if _, err := newTestClient(t, server.URL, "secret-token").Info(context.Background(), "KORD"); err != nil {
		t.Fatalf("Info: %v", err)
	}
	if gotToken != "secret-token" {
		t.Errorf("expected apiToken query parameter, got %q", gotToken)
	}
	if !strings.HasSuffix(gotPath, "/KORD") {
		t.Errorf("expected ICAO in request path, got %q", gotPath)
	}
}

func TestInfoErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := newTestClient(t, server.URL, "").Info(context.Background(), "ZZZZ"); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}
