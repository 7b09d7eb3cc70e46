package briefing

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/avolkov/towertune/internal/weather"
	"github.com/avolkov/towertune/pkg/logger"
)

// Import logger functions
var (
	String = logger.String
	Int    = logger.Int
)

// Config holds briefing generation settings
type Config struct {
	Model   string
	APIKey  string
	Timeout time.Duration
}

const promptText = `You are an aviation weather assistant. Summarize the current conditions at {{.ICAO}} in two plain sentences for a listener tuning into the airport's radio. Do not use abbreviations.

Raw report: {{.Raw}}
Wind: {{.Wind}}
Visibility: {{.Visibility}}
Ceiling: {{.Ceiling}}
Temperature: {{.Temperature}}
Dew point: {{.DewPoint}}
Pressure: {{.Pressure}}`

var promptTemplate = template.Must(template.New("briefing").Parse(promptText))

type promptData struct {
	ICAO string
	weather.DecodedMetar
}

// Briefer turns a decoded weather report into a short plain-language
// summary using the Gemini API.
type Briefer struct {
	config Config
	client *genai.Client
	logger *logger.Logger
}

// NewBriefer creates a briefer. Callers should only construct one when
// an API key is available.
func NewBriefer(ctx context.Context, config Config, log *logger.Logger) (*Briefer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Briefer{
		config: config,
		client: client,
		logger: log.Named("briefing"),
	}, nil
}

// Briefing generates a plain-language summary for one decoded report
func (b *Briefer) Briefing(ctx context.Context, icao string, decoded weather.DecodedMetar) (string, error) {
	prompt, err := renderPrompt(icao, decoded)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	resp, err := b.client.Models.GenerateContent(ctx, b.config.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("briefing generation failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("briefing came back empty")
	}

	b.logger.Debug("Briefing generated",
		String("icao", icao),
		String("model", b.config.Model),
		Int("length", len(text)),
	)
	return text, nil
}

func renderPrompt(icao string, decoded weather.DecodedMetar) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, promptData{ICAO: icao, DecodedMetar: decoded}); err != nil {
		return "", fmt.Errorf("failed to render briefing prompt: %w", err)
	}
	return buf.String(), nil
}
