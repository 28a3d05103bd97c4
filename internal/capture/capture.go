// Package capture takes screenshots and webcam photos through external
// commands and prepares them for a multimodal request.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/eyra/internal/config"
	"github.com/rbright/eyra/internal/conversation"
	"github.com/rbright/eyra/internal/logging"
)

// ErrNoImage is returned when a capture command exits cleanly but leaves no image behind.
var ErrNoImage = errors.New("capture produced no image")

// Source selects which device a capture reads from.
type Source string

const (
	SourceScreen Source = "screen"
	SourceWebcam Source = "webcam"
)

// Capturer produces optimized images for user turns.
type Capturer interface {
	Capture(ctx context.Context, source Source) (conversation.Image, error)
}

// Commands runs the configured screenshot and selfie commands.
type Commands struct {
	Screenshot config.CommandConfig
	Selfie     config.CommandConfig
	Path       string
	Optimize   OptimizeOptions
	Timeout    time.Duration

	// Shutter plays the camera cue before each capture.
	Shutter func(context.Context)
	// Monitor resolves the `{monitor}` placeholder.
	Monitor func(context.Context) (string, error)
	Logger  *slog.Logger
}

// New builds a command-backed capturer from cfg.
func New(cfg config.Config, logger *slog.Logger) *Commands {
	return &Commands{
		Screenshot: cfg.Capture.Screenshot,
		Selfie:     cfg.Capture.Selfie,
		Path:       cfg.ImagePath,
		Optimize: OptimizeOptions{
			MaxWidth:  cfg.Capture.MaxWidth,
			MaxHeight: cfg.Capture.MaxHeight,
			Quality:   cfg.Capture.JPEGQuality,
		},
		Timeout: 15 * time.Second,
		Logger:  logger,
	}
}

// Capture runs the command for source, then optimizes the result in place at Path.
func (c *Commands) Capture(ctx context.Context, source Source) (conversation.Image, error) {
	cmd := c.Screenshot
	if source == SourceWebcam {
		cmd = c.Selfie
	}
	if len(cmd.Argv) == 0 {
		return conversation.Image{}, fmt.Errorf("no %s capture command configured", source)
	}

	if c.Shutter != nil {
		c.Shutter(ctx)
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0o700); err != nil {
		return conversation.Image{}, fmt.Errorf("prepare image dir: %w", err)
	}
	if err := os.Remove(c.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return conversation.Image{}, fmt.Errorf("remove stale image: %w", err)
	}

	vars := map[string]string{"path": c.Path}
	if cmd.Uses("monitor") {
		monitor, err := c.monitor(ctx)
		if err != nil {
			return conversation.Image{}, fmt.Errorf("resolve monitor: %w", err)
		}
		vars["monitor"] = monitor
	}
	argv := cmd.Expand(vars)

	started := time.Now()
	if err := c.run(ctx, argv); err != nil {
		return conversation.Image{}, err
	}

	raw, err := os.ReadFile(c.Path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(raw) == 0) {
		return conversation.Image{}, fmt.Errorf("%s: %w", argv[0], ErrNoImage)
	}
	if err != nil {
		return conversation.Image{}, fmt.Errorf("read capture: %w", err)
	}

	optimized, err := Optimize(raw, c.Optimize)
	if err != nil {
		return conversation.Image{}, err
	}
	if err := os.WriteFile(c.Path, optimized, 0o600); err != nil {
		return conversation.Image{}, fmt.Errorf("write optimized image: %w", err)
	}

	logging.OrDiscard(c.Logger).Debug("capture complete",
		"source", string(source),
		"raw_bytes", len(raw),
		"optimized_bytes", len(optimized),
		"elapsed_ms", time.Since(started).Milliseconds(),
	)
	return conversation.Image{MIMEType: "image/jpeg", Data: optimized, Path: c.Path}, nil
}

func (c *Commands) run(ctx context.Context, argv []string) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return fmt.Errorf("%s failed: %w", argv[0], err)
		}
		return fmt.Errorf("%s failed: %w (%s)", argv[0], err, trimmed)
	}
	return nil
}

func (c *Commands) monitor(ctx context.Context) (string, error) {
	if c.Monitor == nil {
		return "", errors.New("no monitor resolver configured")
	}
	return c.Monitor(ctx)
}
