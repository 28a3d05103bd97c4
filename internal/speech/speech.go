// Package speech turns assistant replies into audible speech.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/rbright/eyra/internal/config"
	"github.com/rbright/eyra/internal/logging"
)

// Speaker blocks until text has been spoken or ctx is done.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// New builds the speaker selected by cfg.Backend.
func New(cfg config.SpeechConfig, logger *slog.Logger) (Speaker, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "command":
		return &Command{Cmd: cfg.Cmd, Logger: logger}, nil
	case "cartesia":
		return NewCartesia(cfg, logger), nil
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unsupported speech backend %q", cfg.Backend)
	}
}

// None discards text silently.
type None struct{}

func (None) Speak(context.Context, string) error { return nil }

// Command speaks through an external TTS program such as say or espeak.
type Command struct {
	Cmd    config.CommandConfig
	Logger *slog.Logger
}

// Speak runs the configured command with text substituted for `{text}`.
func (c *Command) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(c.Cmd.Argv) == 0 {
		return fmt.Errorf("speech command is empty")
	}

	argv := c.Cmd.Expand(map[string]string{"text": text})
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		trimmed := strings.TrimSpace(string(out))
		if trimmed != "" {
			return fmt.Errorf("%s failed: %w (%s)", argv[0], err, trimmed)
		}
		return fmt.Errorf("%s failed: %w", argv[0], err)
	}

	logging.OrDiscard(c.Logger).Debug("speech command complete", "cmd", argv[0], "chars", len(text))
	return nil
}
