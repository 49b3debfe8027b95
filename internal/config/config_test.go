package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "yahoo", cfg.Market.Provider)
	assert.Equal(t, ":8087", cfg.App.HTTPAddr)
	assert.Equal(t, 4, cfg.Market.Concurrency)
	assert.Equal(t, "configs/portfolio.yaml", cfg.Portfolio.File)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  http_addr: ":9000"
  log_level: debug
market:
  timeout_seconds: 5
cache:
  enabled: true
portfolio:
  refresh_minutes: 10
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.App.HTTPAddr)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, 5, cfg.Market.TimeoutSeconds)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "data/prices.db", cfg.Cache.Path, "default path filled when cache enabled")
	assert.Equal(t, 10, cfg.Portfolio.RefreshMinutes)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("market:\n  provider: bloomberg\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
