// Package config resolves, parses, validates, and defaults eyra configuration.
package config

import (
	"strings"
	"time"
)

// Provider names accepted by `provider`.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// Config is the fully materialized runtime configuration used by eyra.
type Config struct {
	Provider     string
	Model        string
	MaxTokens    int
	APIKey       string
	BaseURL      string
	TimeoutMS    int
	SystemPrompt string
	ImagePath    string
	Capture      CaptureConfig
	Speech       SpeechConfig
	Live         LiveConfig
	Hotkeys      HotkeyConfig
	Indicator    IndicatorConfig
	Journal      JournalConfig
}

// CaptureConfig controls screenshot/selfie commands and image optimization.
type CaptureConfig struct {
	Screenshot  CommandConfig
	Selfie      CommandConfig
	MaxWidth    int
	MaxHeight   int
	JPEGQuality int
}

// SpeechConfig selects how Live mode speaks responses.
type SpeechConfig struct {
	Backend        string
	Cmd            CommandConfig
	CartesiaAPIKey string
	CartesiaModel  string
	Voice          string
}

// LiveConfig controls the automatic capture/describe/speak loop.
type LiveConfig struct {
	Prompt     string
	IntervalMS int
}

// HotkeyConfig controls which watchers observe mode-switch chords.
type HotkeyConfig struct {
	Backend  string
	ToLive   string
	ToManual string
	Devices  []string
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	ShutterFile    string
	SwitchFile     string
	ErrorFile      string
	ErrorTimeoutMS int
}

// JournalConfig controls the sqlite conversation journal.
type JournalConfig struct {
	Enable bool
	Path   string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Expand substitutes `{name}` placeholders in every argv element. When text is
// given and no element references `{text}`, it is appended as a final argument.
func (c CommandConfig) Expand(vars map[string]string) []string {
	out := make([]string, 0, len(c.Argv)+1)
	usedText := false
	for _, arg := range c.Argv {
		if strings.Contains(arg, "{text}") {
			usedText = true
		}
		for name, value := range vars {
			arg = strings.ReplaceAll(arg, "{"+name+"}", value)
		}
		out = append(out, arg)
	}
	if text, ok := vars["text"]; ok && !usedText {
		out = append(out, text)
	}
	return out
}

// Uses reports whether any argv element references placeholder name.
func (c CommandConfig) Uses(name string) bool {
	for _, arg := range c.Argv {
		if strings.Contains(arg, "{"+name+"}") {
			return true
		}
	}
	return false
}

// Timeout returns the completion request timeout, zero meaning none.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
