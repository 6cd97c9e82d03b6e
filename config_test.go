package main

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"HTTP_ADDR", "STORE_BACKEND", "SQLITE_PATH", "REDIS_ADDR", "REDIS_DB", "API_KEYS",
		"JWT_SECRET", "JWT_ISSUER", "ALLOW_ANONYMOUS", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.StoreBackend)
	assert.Equal(t, "./data/items.db", cfg.SQLitePath)
	assert.False(t, cfg.AllowAnonymous)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("STORE_BACKEND", " Redis ")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("API_KEYS", "k=alice")
	t.Setenv("ALLOW_ANONYMOUS", "true")
	t.Setenv("SHUTDOWN_TIMEOUT", "250ms")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.AllowAnonymous)
	assert.Equal(t, 250*time.Millisecond, cfg.ShutdownTimeout)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		t.Setenv("REDIS_DB", "not-an-int")
		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env:")
	})
	t.Run("backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "postgres")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "STORE_BACKEND")
	})
	t.Run("api keys", func(t *testing.T) {
		t.Setenv("API_KEYS", "missing-identity")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "API_KEYS")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
