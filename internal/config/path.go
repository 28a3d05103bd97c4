package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ConfigEnv overrides the config location when --config is not given.
const ConfigEnv = "EYRA_CONFIG"

const configFile = "config.jsonc"

// ResolvePath picks the config location: --config, then $EYRA_CONFIG, then
// $XDG_CONFIG_HOME/eyra, then ~/.config/eyra.
func ResolvePath(explicit string) (string, error) {
	for _, candidate := range []string{explicit, os.Getenv(ConfigEnv)} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return expandHome(candidate), nil
		}
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "eyra", configFile), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}
	return filepath.Join(home, ".config", "eyra", configFile), nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}
