package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/horacerta/timeclock/config"
	"github.com/horacerta/timeclock/logging"
)

func TestNew(t *testing.T) {
	logger, err := logging.New(config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = logging.New(config.LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := logging.New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_File(t *testing.T) {
	// GIVEN: A log file next to the console output
	path := filepath.Join(t.TempDir(), "horacerta.log")
	cfg := config.LogConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1}

	// WHEN
	logger, err := logging.New(cfg)
	require.NoError(t, err)
	logger.Info("punch registered")
	logger.Debug("not written")
	_ = logger.Sync()

	// THEN: Entries at or above the level reach the file
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"punch registered"`)
	assert.NotContains(t, string(data), "not written")
}

func TestRotatingFile(t *testing.T) {
	w := logging.RotatingFile(config.LogConfig{File: "app.log", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 7})

	assert.Equal(t, "app.log", w.Filename)
	assert.Equal(t, 10, w.MaxSize)
	assert.Equal(t, 3, w.MaxBackups)
	assert.Equal(t, 7, w.MaxAge)
}
