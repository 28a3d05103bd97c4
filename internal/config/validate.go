package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/eyra/internal/hotkey"
)

// ErrMissingAPIKey is returned when a remote provider has no credential configured.
var ErrMissingAPIKey = errors.New("missing API key")

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	switch cfg.Provider {
	case ProviderOpenAI, ProviderGemini:
		if strings.TrimSpace(cfg.Model) == "" {
			return nil, fmt.Errorf("model must not be empty for provider %q", cfg.Provider)
		}
	case ProviderMock:
	default:
		return nil, fmt.Errorf("provider must be one of: openai, gemini, mock")
	}
	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("max_tokens must be > 0")
	}
	if cfg.TimeoutMS < 0 {
		return nil, fmt.Errorf("timeout_ms must be >= 0")
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		return nil, fmt.Errorf("system_prompt must not be empty")
	}
	if strings.TrimSpace(cfg.ImagePath) == "" {
		return nil, fmt.Errorf("image_path must not be empty")
	}

	if cfg.Capture.MaxWidth <= 0 || cfg.Capture.MaxHeight <= 0 {
		return nil, fmt.Errorf("capture.max_width and capture.max_height must be > 0")
	}
	if cfg.Capture.JPEGQuality < 1 || cfg.Capture.JPEGQuality > 100 {
		return nil, fmt.Errorf("capture.jpeg_quality must be between 1 and 100")
	}
	if len(cfg.Capture.Screenshot.Argv) == 0 {
		warnings = append(warnings, Warning{Message: "capture.screenshot_cmd is empty; #image and Live mode captures will fail"})
	}
	if len(cfg.Capture.Selfie.Argv) == 0 {
		warnings = append(warnings, Warning{Message: "capture.selfie_cmd is empty; #selfie captures will fail"})
	}

	switch cfg.Speech.Backend {
	case "command":
		if len(cfg.Speech.Cmd.Argv) == 0 {
			return nil, fmt.Errorf("speech.cmd must not be empty when speech.backend=command")
		}
	case "cartesia":
		if strings.TrimSpace(cfg.Speech.Voice) == "" {
			return nil, fmt.Errorf("speech.voice must not be empty when speech.backend=cartesia")
		}
	case "none":
	default:
		return nil, fmt.Errorf("speech.backend must be one of: command, cartesia, none")
	}

	if strings.TrimSpace(cfg.Live.Prompt) == "" {
		return nil, fmt.Errorf("live.prompt must not be empty")
	}
	if cfg.Live.IntervalMS < 0 {
		return nil, fmt.Errorf("live.interval_ms must be >= 0")
	}

	switch cfg.Hotkeys.Backend {
	case "evdev", "ipc", "both":
	default:
		return nil, fmt.Errorf("hotkeys.backend must be one of: evdev, ipc, both")
	}
	toLive, err := hotkey.ParseChord(cfg.Hotkeys.ToLive)
	if err != nil {
		return nil, fmt.Errorf("hotkeys.to_live: %w", err)
	}
	toManual, err := hotkey.ParseChord(cfg.Hotkeys.ToManual)
	if err != nil {
		return nil, fmt.Errorf("hotkeys.to_manual: %w", err)
	}
	if toLive.Equal(toManual) {
		warnings = append(warnings, Warning{Message: "hotkeys.to_live and hotkeys.to_manual are the same chord; it toggles between modes"})
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend != "hypr" && backend != "desktop" && backend != "none" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop, none")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	return warnings, nil
}

// RequireCredentials reports a configuration error when the selected provider
// or speech backend needs an API key that is not set.
func RequireCredentials(cfg Config) error {
	if cfg.Provider != ProviderMock && strings.TrimSpace(cfg.APIKey) == "" {
		return fmt.Errorf("%w: set %s or api_key", ErrMissingAPIKey, providerKeyEnv(cfg.Provider))
	}
	if cfg.Speech.Backend == "cartesia" && strings.TrimSpace(cfg.Speech.CartesiaAPIKey) == "" {
		return fmt.Errorf("%w: set CARTESIA_API_KEY or speech.cartesia_api_key", ErrMissingAPIKey)
	}
	return nil
}
