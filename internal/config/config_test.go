package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BACKEND_BASE_URL", "https://api.axis.test")
	t.Setenv("S3_BUCKET", "sponsor-media")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 2, cfg.BackendMaxRetries)
	assert.Equal(t, BackendS3, cfg.StorageBackend)
	assert.Equal(t, BackendRedis, cfg.CacheBackend)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, int64(100<<20), cfg.MediaMaxUploadBytes)
	assert.Equal(t, 4, cfg.MediaConcurrency)
	assert.Equal(t, time.Hour, cfg.DraftTTL)
	assert.False(t, cfg.CouponSyncEnabled)
	assert.False(t, cfg.EventsEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_MissingBackendURL(t *testing.T) {
	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_BASE_URL")
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_S3RequiresBucket(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://api.axis.test")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET is required")
}

func TestLoad_MemoryBackends(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://localhost:9000")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.EventsEnabled())
	assert.True(t, cfg.IsProduction())
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := &Config{
		HTTPPort:            8080,
		BackendBaseURL:      "ftp://nope",
		StorageBackend:      "disk",
		CacheBackend:        "memcached",
		CacheTTL:            time.Minute,
		MediaMaxUploadBytes: 1,
		MediaConcurrency:    0,
		DraftTTL:            time.Minute,
		LoginRateLimit:      1,
		LoginRateBurst:      1,
		OTELSampleRate:      2,
	}

	err := cfg.Validate()

	require.Error(t, err)
	for _, want := range []string{
		"BACKEND_BASE_URL",
		"STORAGE_BACKEND",
		"CACHE_BACKEND",
		"MEDIA_CONCURRENCY",
		"OTEL_SAMPLE_RATE",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestPostgres(t *testing.T) {
	cfg := &Config{
		PostgresUser:     "u",
		PostgresPass:     "p",
		PostgresHost:     "db",
		PostgresPort:     5433,
		PostgresDB:       "hub",
		PostgresSSL:      "require",
		PostgresMaxConns: 4,
	}

	pg := cfg.Postgres()
	assert.Equal(t, "postgres://u:p@db:5433/hub?sslmode=require", pg.DSN())
	assert.Equal(t, int32(4), pg.MaxConns)
}
