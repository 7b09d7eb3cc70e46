package briefing

import (
	"strings"
	"testing"

	"github.com/avolkov/towertune/internal/weather"
)

func TestRenderPromptIncludesDecodedFields(t *testing.T) {
	decoded := weather.DecodedMetar{
		Raw:         "KJFK 121651Z 18015G25KT 10SM BKN038 22/17 A2992",
		Wind:        "180° at 15 knots, gusting to 25 knots",
		Visibility:  "16.093 km",
		Ceiling:     "Broken at 3800 ft",
		Temperature: "22°C",
		DewPoint:    "17°C",
		Pressure:    "1013.2 hPa",
	}

	prompt, err := renderPrompt("KJFK", decoded)
	if err != nil {
		t.Fatalf("renderPrompt: %v", err)
	}

	for _, want := range []string{
		"KJFK",
		decoded.Raw,
		decoded.Wind,
		decoded.Visibility,
		decoded.Ceiling,
		decoded.Temperature,
		decoded.DewPoint,
		decoded.Pressure,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt is missing %q:\n%s", want, prompt)
		}
	}
}

func TestRenderPromptUnavailableFields(t *testing.T) {
	decoded := weather.DecodedMetar{
		Raw:         "NIL",
		Wind:        weather.Unavailable,
		Visibility:  weather.Unavailable,
		Ceiling:     weather.Unavailable,
		Temperature: weather.Unavailable,
		DewPoint:    weather.Unavailable,
		Pressure:    weather.Unavailable,
	}

	prompt, err := renderPrompt("ZZZZ", decoded)
	if err != nil {
		t.Fatalf("renderPrompt: %v", err)
	}
	if !strings.Contains(prompt, weather.Unavailable) {
		t.Errorf("prompt should carry unavailable markers:\n%s", prompt)
	}
}
