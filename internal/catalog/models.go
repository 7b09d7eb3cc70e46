package catalog

import "strings"

// ChannelRecord is one row of the channel catalog: a single audio/video
// feed tied to an airport. Records are immutable once loaded and are
// owned by the Store; callers receive copies.
type ChannelRecord struct {
	Continent          string
	Country            string
	City               string
	StateProvince      string
	AirportName        string
	ICAO               string
	IATA               string
	ChannelDescription string
	StreamURL          string
	WebcamURL          string
	NearbyICAOs        []string
}

// HasWebcam reports whether the record carries a webcam URL
func (r ChannelRecord) HasWebcam() bool {
	return strings.TrimSpace(r.WebcamURL) != ""
}

// Normalize lowercases and trims a value for comparison. Display code
// keeps the original casing; only comparisons go through Normalize.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
