package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LIQ_PORT", "LIQ_DB_PATH", "LIQ_CORS_ORIGINS",
	"LIQ_SCHEDULE_ENABLED", "LIQ_SCHEDULE_CRON", "LIQ_SCHEDULE_TARGET", "LIQ_SCHEDULE_MODE",
}

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultDBPath, cfg.Database.Path)
	assert.Equal(t, DefaultCron, cfg.Schedule.Cron)
	assert.Equal(t, "six_months", cfg.Schedule.Target)
	assert.Equal(t, "individual", cfg.Schedule.Mode)
	assert.False(t, cfg.Schedule.Enabled)
	assert.NotEmpty(t, cfg.Server.CORSOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  port: 9090
  cors_origins: ["https://admin.example.com"]
database:
  path: /var/lib/liq/data.db
schedule:
  enabled: true
  cron: "30 3 1 * *"
  target: one_year
  mode: pooled
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://admin.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/var/lib/liq/data.db", cfg.Database.Path)
	assert.True(t, cfg.Schedule.Enabled)
	assert.Equal(t, "30 3 1 * *", cfg.Schedule.Cron)
	assert.Equal(t, "one_year", cfg.Schedule.Target)
	assert.Equal(t, "pooled", cfg.Schedule.Mode)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "server:\n  port: 9090\nschedule:\n  mode: pooled\n")
	t.Setenv("LIQ_PORT", "7070")
	t.Setenv("LIQ_SCHEDULE_MODE", "individual")
	t.Setenv("LIQ_SCHEDULE_ENABLED", "true")
	t.Setenv("LIQ_CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "individual", cfg.Schedule.Mode)
	assert.True(t, cfg.Schedule.Enabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestLoad_InvalidInput(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(writeFile(t, "server: [unclosed"))
		assert.Error(t, err)
	})
	t.Run("bad port env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LIQ_PORT", "eighty")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("bad enabled env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LIQ_SCHEDULE_ENABLED", "sometimes")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"negative port", func(c *Config) { c.Server.Port = -1 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"unknown target", func(c *Config) { c.Schedule.Target = "quarter" }},
		{"unknown mode", func(c *Config) { c.Schedule.Mode = "cohort" }},
		{"bad cron", func(c *Config) { c.Schedule.Cron = "every night" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load("")
			require.NoError(t, err)

			tt.mutate(cfg)

			assert.Error(t, cfg.Validate())
		})
	}
}
