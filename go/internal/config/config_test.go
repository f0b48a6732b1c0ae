package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gemtable.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 25*time.Second, cfg.Channel.PingInterval)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
api:
  base_url: https://games.example.com
channel:
  ping_interval: 10s
inspector:
  allowed_origins: ["https://table.example.com"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://games.example.com", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Channel.PingInterval)
	assert.Equal(t, []string{"https://table.example.com"}, cfg.Inspector.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "127.0.0.1:7070", cfg.Inspector.Addr)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeFile(t, `
api:
  base_url: https://games.example.com
log_level: debug
`)
	t.Setenv("GEMTABLE_API_BASE_URL", "http://10.0.0.5:8080")
	t.Setenv("GEMTABLE_WS_READ_TIMEOUT", "90s")
	t.Setenv("GEMTABLE_STORAGE_EPHEMERAL", "true")
	t.Setenv("GEMTABLE_NATS_URL", "nats://10.0.0.6:4222")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8080", cfg.API.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.Channel.ReadTimeout)
	assert.True(t, cfg.Storage.Ephemeral)
	assert.Equal(t, "nats://10.0.0.6:4222", cfg.NATS.URL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "api: [unclosed"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "api:\n  base_url: not-a-url\n"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "channel:\n  ping_interval: 2m\n"))
	require.Error(t, err)
}
