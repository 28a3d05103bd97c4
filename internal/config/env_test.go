package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func lookupFrom(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestApplyEnvOverridesFileValues(t *testing.T) {
	cfg := Default()
	cfg.Model = "from-file"

	_, err := ApplyEnv(&cfg, lookupFrom(map[string]string{
		"OPENAI_API_KEY": "sk-test",
		"MODEL_NAME":     "gpt-4o-mini",
		"MAX_TOKENS":     "120",
		"IMAGE_PATH":     "/tmp/eyra.jpg",
	}))
	require.NoError(t, err)
	require.Equal(t, "sk-test", cfg.APIKey)
	require.Equal(t, "gpt-4o-mini", cfg.Model)
	require.Equal(t, 120, cfg.MaxTokens)
	require.Equal(t, "/tmp/eyra.jpg", cfg.ImagePath)
	require.NoError(t, RequireCredentials(cfg))
}

func TestApplyEnvSelectsProviderKey(t *testing.T) {
	cfg := Default()
	_, err := ApplyEnv(&cfg, lookupFrom(map[string]string{
		"EYRA_PROVIDER":  "Gemini",
		"OPENAI_API_KEY": "sk-openai",
		"GEMINI_API_KEY": "gm-key",
	}))
	require.NoError(t, err)
	require.Equal(t, ProviderGemini, cfg.Provider)
	require.Equal(t, "gm-key", cfg.APIKey)
}

func TestApplyEnvMockClientNeedsNoKey(t *testing.T) {
	cfg := Default()
	warnings, err := ApplyEnv(&cfg, lookupFrom(map[string]string{"USE_MOCK_CLIENT": "true"}))
	require.NoError(t, err)
	require.Equal(t, ProviderMock, cfg.Provider)
	require.NotEmpty(t, warnings)
	require.NoError(t, RequireCredentials(cfg))
}

func TestApplyEnvRejectsInvalidValues(t *testing.T) {
	cfg := Default()
	_, err := ApplyEnv(&cfg, lookupFrom(map[string]string{"MAX_TOKENS": "lots"}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "MAX_TOKENS")

	cfg = Default()
	_, err = ApplyEnv(&cfg, lookupFrom(map[string]string{"MAX_TOKENS": "0"}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "max_tokens")

	cfg = Default()
	_, err = ApplyEnv(&cfg, lookupFrom(map[string]string{"USE_MOCK_CLIENT": "perhaps"}))
	require.Error(t, err)
}

func TestRequireCredentialsMissingKey(t *testing.T) {
	cfg := Default()
	err := RequireCredentials(cfg)
	require.ErrorIs(t, err, ErrMissingAPIKey)
	require.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg.Provider = ProviderMock
	cfg.Speech.Backend = "cartesia"
	err = RequireCredentials(cfg)
	require.ErrorIs(t, err, ErrMissingAPIKey)
	require.Contains(t, err.Error(), "CARTESIA_API_KEY")
}

func TestLoadDotenvDoesNotOverrideExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EYRA_TEST_DOTENV_A=from-file\nEYRA_TEST_DOTENV_B=from-file\n"), 0o600))

	t.Setenv("EYRA_TEST_DOTENV_A", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("EYRA_TEST_DOTENV_B") })

	require.NoError(t, LoadDotenv(path))
	require.Equal(t, "from-env", os.Getenv("EYRA_TEST_DOTENV_A"))
	require.Equal(t, "from-file", os.Getenv("EYRA_TEST_DOTENV_B"))
}

func TestLoadDotenvMissingFileIsIgnored(t *testing.T) {
	require.NoError(t, LoadDotenv(filepath.Join(t.TempDir(), ".env")))
}
