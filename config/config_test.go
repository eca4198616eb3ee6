package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horacerta/timeclock/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Auditor.Enabled)
	assert.Equal(t, "@hourly", cfg.Auditor.Schedule)
	assert.Empty(t, cfg.Log.File)
	assert.Equal(t, 50, cfg.Log.MaxSizeMB)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	// GIVEN: a config file and an environment override
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte(`
server:
  port: 9000
db:
  path: /tmp/test.db
log:
  level: debug
  format: console
auditor:
  schedule: "0 19 * * 1-5"
  lookback_days: 7
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))
	t.Setenv("HORACERTA_SERVER_PORT", "9100")

	// WHEN
	cfg, err := config.Load(path)

	// THEN: environment wins over the file, file wins over defaults
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "/tmp/test.db", cfg.DB.Path)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "0 19 * * 1-5", cfg.Auditor.Schedule)
	assert.Equal(t, 7, cfg.Auditor.LookbackDays)
}

func TestLoad_AuditorNeedsSchedule(t *testing.T) {
	t.Setenv("HORACERTA_AUDITOR_ENABLED", "false")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Auditor.Enabled)

	cfg.Auditor.Schedule = ""
	assert.NoError(t, cfg.Validate())
	cfg.Auditor.Enabled = true
	assert.Error(t, cfg.Validate())
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("HORACERTA_SERVER_PORT", "70000")
	_, err := config.Load("")
	assert.Error(t, err)
}
