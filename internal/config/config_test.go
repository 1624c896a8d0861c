package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("IRONTIME_HOME", t.TempDir())

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, "sunday", cfg.WeekStart)
	assert.True(t, cfg.ConfirmDelete)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("IRONTIME_HOME", dir)

	cfg := DefaultConfig()
	require.NoError(t, cfg.Set("server_url", "https://time.example.com/"))
	require.NoError(t, cfg.Set("week_start", "Mon"))
	require.NoError(t, cfg.Set("confirm_delete", "false"))
	require.NoError(t, cfg.Save())

	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://time.example.com", loaded.ServerURL)
	assert.False(t, loaded.ConfirmDelete)

	day, err := loaded.Weekday()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, day)
}

func TestSetRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Set("server_url", "ftp://x"))
	assert.Error(t, cfg.Set("week_start", "someday"))
	assert.Error(t, cfg.Set("log_console", "maybe"))
	assert.Error(t, cfg.Set("editor", "vim"))

	_, err := cfg.Get("editor")
	assert.Error(t, err)
	for _, k := range Keys() {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("IRONTIME_SERVER_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, CacheMemory, cfg.CacheBackend)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 60, cfg.RateLimit)
	assert.Equal(t, time.Sunday, cfg.Weekday())
}

func TestLoadServerFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
cache_backend: postgres
cache_ttl: 30s
rate_limit: 5
week_start: monday
`), 0644))

	t.Setenv("IRONTIME_SERVER_CONFIG", path)
	t.Setenv("PORT", "")
	t.Setenv("IRONTIME_RATE_LIMIT", "7")
	t.Setenv("IRONTIME_SESSION_TTL", "1h")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, CachePostgres, cfg.CacheBackend)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 7, cfg.RateLimit)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Monday, cfg.Weekday())
}

func TestServerValidate(t *testing.T) {
	cases := map[string]func(c *ServerConfig){
		"backend":  func(c *ServerConfig) { c.CacheBackend = "redis" },
		"ttl":      func(c *ServerConfig) { c.CacheTTL = 0 },
		"limit":    func(c *ServerConfig) { c.RateLimit = 0 },
		"week":     func(c *ServerConfig) { c.WeekStart = "someday" },
		"schedule": func(c *ServerConfig) { c.CleanupSchedule = "every now and then" },
		"database": func(c *ServerConfig) { c.DatabaseURL = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, DefaultServerConfig().Validate())
}
