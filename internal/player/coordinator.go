package player

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/google/uuid"

	"github.com/avolkov/towertune/internal/selection"
	"github.com/avolkov/towertune/pkg/logger"
)

// Import logger functions
var (
	String = logger.String
	Error  = logger.Error
)

// Config holds external player and webcam opener settings
type Config struct {
	// Command is the player binary used for both the channel stream and
	// the ambient music stream.
	Command      string
	Flags        []string
	AmbientURL   string
	AmbientFlags []string

	WebcamEnabled bool
	WebcamCommand string
}

// Coordinator launches the external processes for one resolved
// channel: ambient music and webcam in the background, the stream
// player in the foreground.
type Coordinator struct {
	config Config
	logger *logger.Logger
}

// NewCoordinator creates a playback coordinator
func NewCoordinator(config Config, log *logger.Logger) *Coordinator {
	return &Coordinator{config: config, logger: log.Named("player")}
}

// Play runs the stream player until it exits. The ambient player is
// stopped when playback ends; the webcam opener is left to finish on
// its own. The stream URL is always the player's final argument.
func (c *Coordinator) Play(ctx context.Context, res selection.Result) error {
	log := c.logger.With(String("session_id", uuid.New().String()))

	log.Info("Starting playback",
		String("icao", res.Record.ICAO),
		String("channel", res.Record.ChannelDescription),
		String("url", res.StreamURL))

	if c.config.AmbientURL != "" {
		ambient := c.startAmbient(log)
		defer stopProcess(ambient)
	}

	if c.config.WebcamEnabled && res.WebcamURL != "" {
		c.openWebcam(log, res.WebcamURL)
	}

	args := append(append([]string{}, c.config.Flags...), res.StreamURL)
	cmd := exec.CommandContext(ctx, c.config.Command, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("stream player exited: %w", err)
	}
	log.Info("Playback finished")
	return nil
}

// startAmbient launches the ambient music player in the background.
func (c *Coordinator) startAmbient(log *logger.Logger) *exec.Cmd {
	args := append(append([]string{}, c.config.AmbientFlags...), c.config.AmbientURL)
	cmd := exec.Command(c.config.Command, args...)
	if err := cmd.Start(); err != nil {
		log.Warn("Failed to start ambient player", Error(err))
		return nil
	}
	log.Debug("Ambient player started", String("url", c.config.AmbientURL))
	return cmd
}

// openWebcam hands the webcam URL to the configured opener. The opener
// returns on its own, so it is reaped in the background instead of
// killed.
func (c *Coordinator) openWebcam(log *logger.Logger, url string) {
	cmd := exec.Command(c.config.WebcamCommand, url)
	if err := cmd.Start(); err != nil {
		log.Warn("Failed to open webcam", Error(err))
		return
	}
	go func() { _ = cmd.Wait() }()
	log.Debug("Webcam opened", String("url", url))
}

// stopProcess kills a background process and reaps it. Errors are
// expected when the process already exited.
func stopProcess(cmd *exec.Cmd) {
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
}
