package weather

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// METAR groups are whitespace-separated tokens. Digits and letters are
// both word characters, so the word boundaries below keep the matchers
// off time groups ("121651Z"), wind groups ("18015G25KT"), and prefixed
// values ("Q1013", "R24/1200FT").
var (
	reWind         = regexp.MustCompile(`\b(\d{3})(\d{2})(?:G(\d{2}))?KT\b`)
	reVisUnlimited = regexp.MustCompile(`\b9999\b`)
	reVisMeters    = regexp.MustCompile(`\b(\d{4})\b`)
	reVisMiles     = regexp.MustCompile(`\b(\d+)SM\b`)
	reVertVis      = regexp.MustCompile(`\bVV(\d{3})\b`)
	reCloudLayer   = regexp.MustCompile(`\b(BKN|OVC|SCT|FEW)(\d{3})`)
	reTempDew      = regexp.MustCompile(`(?:^|\s)(-?\d{1,2})/(M?\d{1,2})(?:\s|$)`)
	reQNH          = regexp.MustCompile(`\bQ(\d{4})\b`)
	reAltimeter    = regexp.MustCompile(`\bA(\d{4})\b`)
)

// cloudNames maps METAR cloud layer codes to display names
var cloudNames = map[string]string{
	"BKN": "Broken",
	"OVC": "Overcast",
	"SCT": "Scattered",
	"FEW": "Few",
}

// Decode extracts structured weather fields from one raw METAR report.
// It is total over any input: a malformed or missing group degrades the
// affected field to Unavailable and never blocks the other fields.
func Decode(raw string) DecodedMetar {
	m := DecodedMetar{
		Raw:        raw,
		Wind:       decodeWind(raw),
		Visibility: decodeVisibility(raw),
		Ceiling:    decodeCeiling(raw),
		Pressure:   decodePressure(raw),
	}
	m.Temperature, m.DewPoint = decodeTempDew(raw)
	return m
}

// decodeWind parses the DDDSS[GGG]KT group: 3-digit direction, 2-digit
// speed, optional 2-digit gust prefixed with G.
func decodeWind(raw string) string {
	m := reWind.FindStringSubmatch(raw)
	if m == nil {
		return Unavailable
	}
	dir, _ := strconv.Atoi(m[1])
	speed, _ := strconv.Atoi(m[2])
	wind := fmt.Sprintf("%d° at %d knots", dir, speed)
	if m[3] != "" {
		gust, _ := strconv.Atoi(m[3])
		wind += fmt.Sprintf(", gusting to %d knots", gust)
	}
	return wind
}

// decodeVisibility tries, in order: the 9999 unlimited marker, a bare
// 4-digit meter group, a statute-mile group. The order matters: a report
// carrying both meters and an SM group keeps the meter interpretation.
func decodeVisibility(raw string) string {
	if reVisUnlimited.MatchString(raw) {
		return "10+ km (Unlimited)"
	}
	if m := reVisMeters.FindStringSubmatch(raw); m != nil {
		meters, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%d km", meters/1000)
	}
	if m := reVisMiles.FindStringSubmatch(raw); m != nil {
		miles, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%.3f km", float64(miles)*1.60934)
	}
	return Unavailable
}

// decodeCeiling reports vertical visibility when present, otherwise the
// first cloud layer. Heights are in hundreds of feet.
func decodeCeiling(raw string) string {
	if m := reVertVis.FindStringSubmatch(raw); m != nil {
		height, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("Vertical Visibility at %d ft", height*100)
	}
	if m := reCloudLayer.FindStringSubmatch(raw); m != nil {
		height, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%s at %d ft", cloudNames[m[1]], height*100)
	}
	return Unavailable
}

// decodeTempDew parses the shared temperature/dewpoint group. The two
// fields come from one match: when it fails both are Unavailable.
// Dew points use a literal M prefix for minus; "-00" normalizes to 0.
func decodeTempDew(raw string) (string, string) {
	m := reTempDew.FindStringSubmatch(raw)
	if m == nil {
		return Unavailable, Unavailable
	}

	temp, _ := strconv.Atoi(m[1])
	dew, _ := strconv.Atoi(strings.TrimPrefix(m[2], "M"))
	if strings.HasPrefix(m[2], "M") {
		dew = -dew
	}
	return fmt.Sprintf("%d°C", temp), fmt.Sprintf("%d°C", dew)
}

// decodePressure prefers the hectopascal group (Q) over the altimeter
// group (A), which is converted from hundredths of inches of mercury.
func decodePressure(raw string) string {
	if m := reQNH.FindStringSubmatch(raw); m != nil {
		hpa, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%d hPa", hpa)
	}
	if m := reAltimeter.FindStringSubmatch(raw); m != nil {
		hundredths, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%.1f hPa", float64(hundredths)/100.0*33.8639)
	}
	return Unavailable
}
