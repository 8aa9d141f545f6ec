package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath
}

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := createTempConfigFile(t, `
listen: "0.0.0.0:9000"
week_start: "Sunday"
log_level: "loud"
rate_limit:
  burst: 5
basic_auth:
  username: "anna"
  password: "geheim"
auto_export:
  cron: "0 3 * * *"
  dir: "/var/lib/kalender"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "sunday", cfg.WeekStart)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(defaultMaxImportBytes), cfg.MaxImportBytes)
	assert.Equal(t, float64(defaultRateLimitRPS), cfg.RateLimit.RPS)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "anna", cfg.BasicAuth.Username)
	assert.True(t, cfg.AutoExport.Enabled())
	assert.NotNil(t, cfg.CORS.AllowedOrigins)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	_, err = Load(createTempConfigFile(t, "listen: [unterminated"))
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.CORS.AllowedOrigins = []string{"https://kalender.example.com"}
	cfg.WeekStart = "sunday"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	assert.Error(t, Save(path, nil))
}

func TestAutoExportEnabled(t *testing.T) {
	assert.False(t, AutoExportConfig{}.Enabled())
	assert.False(t, AutoExportConfig{Cron: "@daily"}.Enabled())
	assert.False(t, AutoExportConfig{Dir: "/tmp"}.Enabled())
	assert.True(t, AutoExportConfig{Cron: "@daily", Dir: "/tmp"}.Enabled())
}
