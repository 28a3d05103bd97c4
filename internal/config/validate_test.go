package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	_, err := Validate(Default())
	require.NoError(t, err)
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "claude" }, wantErr: "provider"},
		{name: "empty model", mutate: func(c *Config) { c.Model = " " }, wantErr: "model"},
		{name: "zero max tokens", mutate: func(c *Config) { c.MaxTokens = 0 }, wantErr: "max_tokens"},
		{name: "negative timeout", mutate: func(c *Config) { c.TimeoutMS = -1 }, wantErr: "timeout_ms"},
		{name: "empty system prompt", mutate: func(c *Config) { c.SystemPrompt = "" }, wantErr: "system_prompt"},
		{name: "empty image path", mutate: func(c *Config) { c.ImagePath = "" }, wantErr: "image_path"},
		{name: "zero width", mutate: func(c *Config) { c.Capture.MaxWidth = 0 }, wantErr: "capture.max_width"},
		{name: "bad jpeg quality", mutate: func(c *Config) { c.Capture.JPEGQuality = 101 }, wantErr: "jpeg_quality"},
		{name: "unknown speech backend", mutate: func(c *Config) { c.Speech.Backend = "tts" }, wantErr: "speech.backend"},
		{name: "empty speech cmd", mutate: func(c *Config) { c.Speech.Cmd = CommandConfig{} }, wantErr: "speech.cmd"},
		{name: "empty live prompt", mutate: func(c *Config) { c.Live.Prompt = "" }, wantErr: "live.prompt"},
		{name: "negative interval", mutate: func(c *Config) { c.Live.IntervalMS = -5 }, wantErr: "live.interval_ms"},
		{name: "unknown hotkey backend", mutate: func(c *Config) { c.Hotkeys.Backend = "x11" }, wantErr: "hotkeys.backend"},
		{name: "bad chord", mutate: func(c *Config) { c.Hotkeys.ToLive = "ctrl+" }, wantErr: "hotkeys.to_live"},
		{name: "bad indicator backend", mutate: func(c *Config) { c.Indicator.Backend = "tray" }, wantErr: "indicator.backend"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateMockAllowsEmptyModel(t *testing.T) {
	cfg := Default()
	cfg.Provider = ProviderMock
	cfg.Model = ""
	_, err := Validate(cfg)
	require.NoError(t, err)
}

func TestValidateWarnsOnMissingCaptureCommands(t *testing.T) {
	cfg := Default()
	cfg.Capture.Selfie = CommandConfig{}
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	require.Contains(t, warnings[len(warnings)-1].Message, "selfie_cmd")
}

func TestValidateWarnsOnIdenticalChords(t *testing.T) {
	cfg := Default()
	cfg.Hotkeys.ToManual = "ctrl+shift+m"
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
}

func TestDefaultCommandsPerPlatform(t *testing.T) {
	origGOOS, origLookup := goos, lookupEnv
	t.Cleanup(func() { goos, lookupEnv = origGOOS, origLookup })

	lookupEnv = func(string) (string, bool) { return "", false }

	goos = "darwin"
	cfg := Default()
	require.Equal(t, []string{"screencapture", "-x", "{path}"}, cfg.Capture.Screenshot.Argv)
	require.Equal(t, []string{"say", "-r", "178", "{text}"}, cfg.Speech.Cmd.Argv)
	require.Equal(t, "none", cfg.Indicator.Backend)

	goos = "linux"
	cfg = Default()
	require.Equal(t, []string{"grim", "{path}"}, cfg.Capture.Screenshot.Argv)
	require.Equal(t, []string{"espeak", "-s", "80", "{text}"}, cfg.Speech.Cmd.Argv)
	require.Equal(t, "desktop", cfg.Indicator.Backend)

	lookupEnv = func(key string) (string, bool) {
		return "abc", key == "HYPRLAND_INSTANCE_SIGNATURE"
	}
	cfg = Default()
	require.True(t, cfg.Capture.Screenshot.Uses("monitor"))
	require.Equal(t, "hypr", cfg.Indicator.Backend)
}
