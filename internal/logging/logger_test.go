package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewDevelopmentLogger confirms the development logger builds and logs.
func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{Development: true})
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

// TestNewProductionLogger ensures the production logger configuration succeeds.
func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{})
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger ready")
}

func TestNewLoggerWritesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "harvester.log")
	logger, err := New(Config{File: path})
	require.NoError(t, err)

	logger.Info("file logger ready")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"file logger ready"`)
	assert.Contains(t, string(data), `"ts":`)
}

func TestRotatorDefaults(t *testing.T) {
	t.Parallel()

	r := rotator(Config{File: "x.log", MaxSizeMB: 20})
	assert.Equal(t, 20, r.MaxSize)
	assert.Equal(t, 3, r.MaxBackups)
	assert.Equal(t, 30, r.MaxAge)
}
