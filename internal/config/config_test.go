package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://127.0.0.1:8000", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 200, cfg.Fallback.Latency.Inventory)
	assert.Equal(t, 200, cfg.Fallback.Latency.Sleeves)
	assert.Equal(t, 400, cfg.Fallback.Latency.Open)
	assert.Equal(t, 120, cfg.Fallback.Latency.Session)
	assert.Equal(t, 220, cfg.Fallback.Latency.Login)
	assert.Equal(t, 120, cfg.Fallback.Latency.Logout)
	assert.Equal(t, 100, cfg.User.StartingWallet)
	assert.NotEmpty(t, cfg.User.AvatarURL)
	assert.False(t, cfg.Storage.CacheCatalog)
	assert.False(t, cfg.Fallback.StrictOpen)
}

func TestNoLatency(t *testing.T) {
	cfg := Default().NoLatency()
	l := cfg.Fallback.Latency
	assert.Zero(t, l.Inventory+l.Sleeves+l.Open+l.Session+l.Login+l.Logout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "data", "catalog.db")

	yaml := `
api:
  base_url: http://backend.test:9000
fallback:
  strict_open: true
  latency:
    open: 50
storage:
  cache_catalog: true
  database_path: ` + dbPath + `
user:
  starting_wallet: 250
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("SLEEVES_API_TIMEOUT", "3")
	t.Setenv("SLEEVES_FALLBACK_LATENCY_LOGIN", "0")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend.test:9000", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 50, cfg.Fallback.Latency.Open)
	assert.True(t, cfg.Fallback.StrictOpen)
	assert.Equal(t, 0, cfg.Fallback.Latency.Login)
	assert.Equal(t, 200, cfg.Fallback.Latency.Inventory)
	assert.Equal(t, 250, cfg.User.StartingWallet)
	assert.True(t, cfg.Storage.CacheCatalog)

	assert.DirExists(t, filepath.Dir(dbPath))
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestMillis(t *testing.T) {
	assert.Equal(t, 400*time.Millisecond, Millis(400))
	assert.Zero(t, Millis(0))
}
