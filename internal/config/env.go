package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(string) (string, bool)

// LoadDotenv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an error.
func LoadDotenv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg. Environment values win
// over file values.
func ApplyEnv(cfg *Config, lookup LookupFunc) ([]Warning, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	warnings := make([]Warning, 0)

	if value, ok := nonEmpty(lookup, "EYRA_PROVIDER"); ok {
		cfg.Provider = strings.ToLower(value)
	}
	if value, ok := nonEmpty(lookup, "USE_MOCK_CLIENT"); ok {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("USE_MOCK_CLIENT: %w", err)
		}
		if enabled {
			cfg.Provider = ProviderMock
		}
	}
	if value, ok := nonEmpty(lookup, providerKeyEnv(cfg.Provider)); ok {
		cfg.APIKey = value
	}
	if value, ok := nonEmpty(lookup, "MODEL_NAME"); ok {
		cfg.Model = value
	}
	if value, ok := nonEmpty(lookup, "MAX_TOKENS"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("MAX_TOKENS must be an integer: %w", err)
		}
		cfg.MaxTokens = parsed
	}
	if value, ok := nonEmpty(lookup, "IMAGE_PATH"); ok {
		cfg.ImagePath = value
	}
	if value, ok := nonEmpty(lookup, "CARTESIA_API_KEY"); ok {
		cfg.Speech.CartesiaAPIKey = value
	}

	if cfg.Provider == ProviderMock && strings.TrimSpace(cfg.APIKey) == "" {
		warnings = append(warnings, Warning{Message: "using mock completion client; responses are canned"})
	}

	if _, err := Validate(*cfg); err != nil {
		return nil, err
	}
	return warnings, nil
}

func providerKeyEnv(provider string) string {
	switch provider {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

func nonEmpty(lookup LookupFunc, key string) (string, bool) {
	value, ok := lookup(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
