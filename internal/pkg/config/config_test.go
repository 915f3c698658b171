package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "", cfg.Pipeline.DictionaryPath)
	assert.Equal(t, 8, cfg.Pipeline.BatchWorkers)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CACHE_BACKEND", "REDIS")
	t.Setenv("BATCH_WORKERS", "2")
	t.Setenv("DICTIONARY_PATH", "/etc/preprocessing/words.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "0.0.0.0:8081", cfg.Server.Address())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 2, cfg.Pipeline.BatchWorkers)
	assert.Equal(t, "/etc/preprocessing/words.json", cfg.Pipeline.DictionaryPath)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown cache backend", key: "CACHE_BACKEND", value: "memcached"},
		{name: "zero batch workers", key: "BATCH_WORKERS", value: "0"},
		{name: "port out of range", key: "SERVER_PORT", value: "70000"},
		{name: "zero worker concurrency", key: "WORKER_CONCURRENCY", value: "0"},
		{name: "negative text limit", key: "MAX_TEXT_BYTES", value: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "app",
		Password: "secret",
		Database: "preprocessing",
		SSLMode:  "require",
	}

	assert.Equal(t, "host=db port=5433 user=app password=secret dbname=preprocessing sslmode=require", cfg.DSN())
}
