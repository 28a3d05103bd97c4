package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tailscale/hujson"
)

type jsoncConfig struct {
	Provider     *string `json:"provider"`
	Model        *string `json:"model"`
	MaxTokens    *int    `json:"max_tokens"`
	APIKey       *string `json:"api_key"`
	BaseURL      *string `json:"base_url"`
	TimeoutMS    *int    `json:"timeout_ms"`
	SystemPrompt *string `json:"system_prompt"`
	ImagePath    *string `json:"image_path"`

	Capture   *jsoncCapture   `json:"capture"`
	Speech    *jsoncSpeech    `json:"speech"`
	Live      *jsoncLive      `json:"live"`
	Hotkeys   *jsoncHotkeys   `json:"hotkeys"`
	Indicator *jsoncIndicator `json:"indicator"`
	Journal   *jsoncJournal   `json:"journal"`
}

type jsoncCapture struct {
	ScreenshotCmd *string `json:"screenshot_cmd"`
	SelfieCmd     *string `json:"selfie_cmd"`
	MaxWidth      *int    `json:"max_width"`
	MaxHeight     *int    `json:"max_height"`
	JPEGQuality   *int    `json:"jpeg_quality"`
}

type jsoncSpeech struct {
	Backend        *string `json:"backend"`
	Cmd            *string `json:"cmd"`
	CartesiaAPIKey *string `json:"cartesia_api_key"`
	CartesiaModel  *string `json:"cartesia_model"`
	Voice          *string `json:"voice"`
}

type jsoncLive struct {
	Prompt     *string `json:"prompt"`
	IntervalMS *int    `json:"interval_ms"`
}

type jsoncHotkeys struct {
	Backend  *string          `json:"backend"`
	ToLive   *string          `json:"to_live"`
	ToManual *string          `json:"to_manual"`
	Devices  *jsoncStringList `json:"devices"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	ShutterFile    *string `json:"shutter_file"`
	SwitchFile     *string `json:"switch_file"`
	ErrorFile      *string `json:"error_file"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncJournal struct {
	Enable *bool   `json:"enable"`
	Path   *string `json:"path"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	setString(&cfg.Provider, payload.Provider, true)
	setString(&cfg.Model, payload.Model, true)
	setInt(&cfg.MaxTokens, payload.MaxTokens)
	setString(&cfg.APIKey, payload.APIKey, true)
	setString(&cfg.BaseURL, payload.BaseURL, true)
	setInt(&cfg.TimeoutMS, payload.TimeoutMS)
	setString(&cfg.SystemPrompt, payload.SystemPrompt, false)
	setString(&cfg.ImagePath, payload.ImagePath, true)

	if c := payload.Capture; c != nil {
		if err := setCommand(&cfg.Capture.Screenshot, c.ScreenshotCmd, "capture.screenshot_cmd"); err != nil {
			return err
		}
		if err := setCommand(&cfg.Capture.Selfie, c.SelfieCmd, "capture.selfie_cmd"); err != nil {
			return err
		}
		setInt(&cfg.Capture.MaxWidth, c.MaxWidth)
		setInt(&cfg.Capture.MaxHeight, c.MaxHeight)
		setInt(&cfg.Capture.JPEGQuality, c.JPEGQuality)
	}

	if s := payload.Speech; s != nil {
		setString(&cfg.Speech.Backend, s.Backend, true)
		if err := setCommand(&cfg.Speech.Cmd, s.Cmd, "speech.cmd"); err != nil {
			return err
		}
		setString(&cfg.Speech.CartesiaAPIKey, s.CartesiaAPIKey, true)
		setString(&cfg.Speech.CartesiaModel, s.CartesiaModel, true)
		setString(&cfg.Speech.Voice, s.Voice, true)
	}

	if l := payload.Live; l != nil {
		setString(&cfg.Live.Prompt, l.Prompt, false)
		setInt(&cfg.Live.IntervalMS, l.IntervalMS)
	}

	if h := payload.Hotkeys; h != nil {
		setString(&cfg.Hotkeys.Backend, h.Backend, true)
		setString(&cfg.Hotkeys.ToLive, h.ToLive, true)
		setString(&cfg.Hotkeys.ToManual, h.ToManual, true)
		if h.Devices != nil {
			cfg.Hotkeys.Devices = append([]string(nil), (*h.Devices)...)
		}
	}

	if i := payload.Indicator; i != nil {
		setBool(&cfg.Indicator.Enable, i.Enable)
		setString(&cfg.Indicator.Backend, i.Backend, true)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName, true)
		setBool(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setString(&cfg.Indicator.ShutterFile, i.ShutterFile, true)
		setString(&cfg.Indicator.SwitchFile, i.SwitchFile, true)
		setString(&cfg.Indicator.ErrorFile, i.ErrorFile, true)
		setInt(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if j := payload.Journal; j != nil {
		setBool(&cfg.Journal.Enable, j.Enable)
		setString(&cfg.Journal.Path, j.Path, true)
	}

	return nil
}

func setString(dst *string, src *string, trim bool) {
	if src == nil {
		return
	}
	if trim {
		*dst = strings.TrimSpace(*src)
		return
	}
	*dst = *src
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setCommand(dst *CommandConfig, raw *string, key string) error {
	if raw == nil {
		return nil
	}
	cmd, err := parseCommand(*raw, key)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = cmd
	return nil
}

// normalizeJSONC rewrites comments and trailing commas as whitespace, so byte
// offsets in the result still point at the original source.
func normalizeJSONC(content string) (string, error) {
	standard, err := hujson.Standardize([]byte(content))
	if err != nil {
		return "", fmt.Errorf("invalid JSONC: %w", err)
	}
	return string(standard), nil
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
