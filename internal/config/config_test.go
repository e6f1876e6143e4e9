package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordsmith/internal/api"
)

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, api.DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, api.DefaultTimeout, cfg.API.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 9100, cfg.Metrics.Port)
	assert.Equal(t, 7070, cfg.GRPC.Port)
	assert.NotEmpty(t, cfg.Identity.Path)
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `schema_version: v1
api:
  base_url: http://file:8000
  timeout: 5s
monitor:
  interval: 1m
log:
  json: true
`)
	t.Setenv("WORDSMITH__API__BASE_URL", "http://env:9000")
	t.Setenv("WORDSMITH__GRPC__PORT", "7171")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env:9000", cfg.API.BaseURL, "env wins over file")
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, time.Minute, cfg.Monitor.Interval)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, 7171, cfg.GRPC.Port)
}

func TestLoadFrom_Invalid(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadFrom(writeFile(t, dir, "a.yaml", "schema_version: v2\n"))
	assert.ErrorContains(t, err, "schema_version")

	_, err = LoadFrom(writeFile(t, dir, "b.yaml", "metrics:\n  port: 70000\n"))
	assert.ErrorContains(t, err, "metrics.port")
}
