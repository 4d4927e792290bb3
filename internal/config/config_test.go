package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_SECRET", "s3cret")
	t.Setenv("TIMEZONE", "Europe/Moscow")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "s3cret", cfg.Telegram.AdminSecret)
	assert.Equal(t, 30, cfg.Telegram.PollTimeout)
	assert.Equal(t, 5, cfg.Telegram.AdminAttemptsPerMinute)
	assert.Equal(t, "localhost:8082", cfg.HTTPServer.Address)
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, "Europe/Moscow", cfg.Location().String())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
env: prod
storage_path: /var/lib/care-booker/bot.db
seed_demo: true
telegram:
  token: "42:xyz"
  admin_secret: "letmein"
http_server:
  address: ":9090"
  timeout: 10s
`), 0o600)
	require.NoError(t, err)

	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "/var/lib/care-booker/bot.db", cfg.StoragePath)
	assert.True(t, cfg.SeedDemo)
	assert.Equal(t, "letmein", cfg.Telegram.AdminSecret)
	assert.Equal(t, ":9090", cfg.HTTPServer.Address)
	assert.Equal(t, 10*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := Load()
		assert.ErrorContains(t, err, "config file does not exist")
	})

	t.Run("bad timezone", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")
		t.Setenv("BOT_TOKEN", "1:a")
		t.Setenv("ADMIN_SECRET", "x")
		t.Setenv("TIMEZONE", "Mars/Olympus")

		_, err := Load()
		assert.ErrorContains(t, err, "invalid timezone")
	})
}
