package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Sources names the overlays applied on top of the config file.
type Sources struct {
	// Dotenv is loaded into the process environment first. Empty skips it.
	Dotenv string
	// Lookup reads environment overrides; nil means os.LookupEnv.
	Lookup LookupFunc
}

// Load resolves and parses the config file, then overlays the environment.
// Precedence, lowest first: defaults, file, .env, process environment.
func Load(explicitPath string, src Sources) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	loaded := Loaded{Path: resolvedPath, Config: Default()}

	if src.Dotenv != "" {
		if err := LoadDotenv(src.Dotenv); err != nil {
			loaded.Warnings = append(loaded.Warnings, Warning{Message: err.Error()})
		}
	}

	content, err := os.ReadFile(resolvedPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	default:
		cfg, warnings, err := Parse(string(content), loaded.Config)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
		}
		loaded.Config = cfg
		loaded.Warnings = append(loaded.Warnings, warnings...)
		loaded.Exists = true
	}

	envWarnings, err := ApplyEnv(&loaded.Config, src.Lookup)
	if err != nil {
		return Loaded{}, fmt.Errorf("environment: %w", err)
	}
	loaded.Warnings = append(loaded.Warnings, envWarnings...)
	return loaded, nil
}
