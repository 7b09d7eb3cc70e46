package weather

import "time"

// Unavailable is the placeholder for any weather field that cannot be
// decoded or fetched.
const Unavailable = "Unavailable"

// Config holds METAR fetch settings
type Config struct {
	MetarURL string        // URL template with one %s placeholder for the station code
	Timeout  time.Duration // HTTP timeout per request
}

// DecodedMetar holds the human-readable fields extracted from one raw
// METAR report. Fields are decoded independently of each other; any of
// them may be Unavailable without affecting the rest.
type DecodedMetar struct {
	Raw         string
	Wind        string
	Visibility  string
	Ceiling     string
	Temperature string
	DewPoint    string
	Pressure    string
}
