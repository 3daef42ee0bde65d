package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: t.TempDir()},
		Server: ServerConfig{
			Name:         "QueryDeck Server",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Auth:      AuthConfig{AccessTokenDuration: 15 * time.Minute},
		RateLimit: RateLimitConfig{RPS: 5, Burst: 10},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig(t)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Environment(t *testing.T) {
	cfg := validConfig(t)

	cfg.App.Environment = "qa"
	assert.Error(t, cfg.Validate())

	for _, env := range []string{"development", "staging", "production"} {
		cfg.App.Environment = env
		assert.NoError(t, cfg.Validate(), env)
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := validConfig(t)

	cfg.Logger.Level = "verbose"
	assert.Error(t, cfg.Validate())

	// Case-insensitive.
	cfg.Logger.Level = "DEBUG"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RateLimit(t *testing.T) {
	cfg := validConfig(t)

	cfg.RateLimit.RPS = 0
	assert.Error(t, cfg.Validate())

	cfg.RateLimit.RPS = 5
	cfg.RateLimit.Burst = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_DataPath(t *testing.T) {
	cfg := validConfig(t)
	cfg.Data.BasePath = ""
	assert.Error(t, cfg.Validate())
}

func TestDatabasePath(t *testing.T) {
	cfg := validConfig(t)
	assert.Equal(t, filepath.Join(cfg.Data.BasePath, "db"), cfg.DatabasePath())
}

func TestExpandPath(t *testing.T) {
	// Empty path falls back to the default.
	got, err := expandPath("", "/default/path")
	require.NoError(t, err)
	assert.Equal(t, "/default/path", got)

	// Tilde expansion.
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	got, err = expandPath("~/querydeck", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "querydeck"), got)

	// Relative paths become absolute.
	got, err = expandPath("relative/dir", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestGetConfigValuePrecedence(t *testing.T) {
	t.Setenv("QD_TEST_KEY", "from-env")

	// Flag wins over env.
	assert.Equal(t, "from-flag", getConfigValue("from-flag", "QD_TEST_KEY", "default"))

	// Env wins over default.
	assert.Equal(t, "from-env", getConfigValue("", "QD_TEST_KEY", "default"))

	// Default when nothing else is set.
	assert.Equal(t, "default", getConfigValue("", "QD_TEST_MISSING", "default"))
}

func TestGetIntAndFloatConfigValues(t *testing.T) {
	t.Setenv("QD_TEST_INT", "42")
	assert.Equal(t, 42, getIntConfigValue("", "QD_TEST_INT", 7))
	assert.Equal(t, 7, getIntConfigValue("", "QD_TEST_INT_MISSING", 7))

	t.Setenv("QD_TEST_BAD_INT", "not-a-number")
	assert.Equal(t, 7, getIntConfigValue("", "QD_TEST_BAD_INT", 7))

	t.Setenv("QD_TEST_FLOAT", "2.5")
	assert.Equal(t, 2.5, getFloatConfigValue("", "QD_TEST_FLOAT", 1))
	assert.Equal(t, 1.0, getFloatConfigValue("", "QD_TEST_FLOAT_MISSING", 1))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")

	content := "# comment line\n\nQD_ENVFILE_A=hello\nQD_ENVFILE_B=\"quoted\"\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))

	t.Setenv("QD_ENVFILE_A", "")
	t.Setenv("QD_ENVFILE_B", "")
	os.Unsetenv("QD_ENVFILE_A")
	os.Unsetenv("QD_ENVFILE_B")

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "hello", os.Getenv("QD_ENVFILE_A"))
	assert.Equal(t, "quoted", os.Getenv("QD_ENVFILE_B"))
}

func TestLoadEnvFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("NO_EQUALS_SIGN\n"), 0o600))

	assert.Error(t, loadEnvFile(envPath))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.Error(t, loadEnvFile(filepath.Join(t.TempDir(), "nope.env")))
}
