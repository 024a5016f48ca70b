package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LENDTRACK_CONFIG", "PORT", "LOG_LEVEL", "LOG_FORMAT", "CACHE_BACKEND",
		"REDIS_ADDR", "CACHE_TTL", "CACHE_MAX_ENTRIES", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_WINDOW",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lendtrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
port: "9090"
log_format: json
cache_backend: redis
redis_addr: cache:6379
cache_ttl: 2m
rate_limit_capacity: 5
`)
	t.Setenv("PORT", "9191")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("CACHE_MAX_ENTRIES", "500")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, CacheRedis, cfg.CacheBackend)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 500, cfg.CacheMaxEntries)
	assert.Equal(t, 5, cfg.RateLimitCapacity)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PathFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LENDTRACK_CONFIG", writeFile(t, "log_level: debug\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(writeFile(t, "port: [unterminated\n"))
		assert.ErrorContains(t, err, "parse config file")
	})

	t.Run("bad env values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CACHE_TTL", "soon")
		t.Setenv("RATE_LIMIT_CAPACITY", "many")

		_, err := Load("")
		require.Error(t, err)
		assert.Len(t, multierr.Errors(err), 2)
	})
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Port:              "70000",
		LogLevel:          "loud",
		LogFormat:         "xml",
		CacheBackend:      "memcached",
		CacheTTL:          -time.Second,
		RateLimitCapacity: 0,
		RateLimitWindow:   time.Millisecond,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 7)
	assert.ErrorContains(t, err, "invalid port 70000")
	assert.ErrorContains(t, err, "invalid cache backend")
}

func TestValidate_RedisNeedsAddress(t *testing.T) {
	cfg := Default()
	cfg.CacheBackend = CacheRedis
	cfg.RedisAddr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
}

func TestValidate_MemoryCacheNeedsCapacity(t *testing.T) {
	cfg := Default()
	cfg.CacheMaxEntries = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid cache max entries 0")

	cfg.CacheBackend = CacheNone
	assert.NoError(t, cfg.Validate())
}
