package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/jdufresne12/web-portal/pkg/config"
	"github.com/jdufresne12/web-portal/pkg/database"
)

// Storage and cache backends.
const (
	BackendMemory = "memory"
	BackendS3     = "s3"
	BackendRedis  = "redis"
)

// Config holds all configuration for the sponsors hub.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	LoginRateLimit     float64       `env:"LOGIN_RATE_LIMIT" envDefault:"5"`
	LoginRateBurst     int           `env:"LOGIN_RATE_BURST" envDefault:"10"`

	// Backend REST API
	BackendBaseURL    string        `env:"BACKEND_BASE_URL,required"`
	BackendTimeout    time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`
	BackendMaxRetries int           `env:"BACKEND_MAX_RETRIES" envDefault:"2"`
	BackendCBTimeout  time.Duration `env:"BACKEND_CB_TIMEOUT" envDefault:"30s"`
	BackendCBRatio    float64       `env:"BACKEND_CB_FAILURE_RATIO" envDefault:"0.5"`

	// Object storage
	StorageBackend    string `env:"STORAGE_BACKEND" envDefault:"s3"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3PublicURL       string `env:"S3_PUBLIC_URL"`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`

	// Record cache
	CacheBackend string        `env:"CACHE_BACKEND" envDefault:"redis"`
	RedisHost    string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort    int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass    string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB      int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"30m"`

	// Mutation report audit log
	ReportsEnabled    bool          `env:"REPORTS_ENABLED" envDefault:"true"`
	PostgresHost      string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort      int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser      string        `env:"POSTGRES_USER" envDefault:"sponsors"`
	PostgresPass      string        `env:"POSTGRES_PASSWORD" envDefault:"sponsors_secret"`
	PostgresDB        string        `env:"POSTGRES_DB" envDefault:"sponsors_hub"`
	PostgresSSL       string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns  int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	PostgresSlowQuery time.Duration `env:"POSTGRES_SLOW_QUERY" envDefault:"250ms"`

	// Kafka; empty disables record events.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Media
	MediaMaxUploadBytes int64         `env:"MEDIA_MAX_UPLOAD_BYTES" envDefault:"104857600"`
	MediaConcurrency    int           `env:"MEDIA_CONCURRENCY" envDefault:"4"`
	DraftTTL            time.Duration `env:"DRAFT_TTL" envDefault:"1h"`

	// Coupons
	CouponSyncEnabled bool `env:"COUPON_SYNC_ENABLED" envDefault:"false"`

	// Tracing; empty endpoint disables it.
	OTELEndpoint   string  `env:"OTEL_ENDPOINT"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables, after the given
// dotenv files.
func Load(dotenv ...string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, dotenv...); err != nil {
		return nil, fmt.Errorf("load sponsors hub config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}
	if !strings.HasPrefix(c.BackendBaseURL, "http://") && !strings.HasPrefix(c.BackendBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("BACKEND_BASE_URL must be an http(s) URL"))
	}
	if c.BackendMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("BACKEND_MAX_RETRIES must not be negative"))
	}

	switch c.StorageBackend {
	case BackendMemory:
	case BackendS3:
		if c.S3Bucket == "" {
			errs = append(errs, fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be %q or %q", BackendS3, BackendMemory))
	}

	switch c.CacheBackend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be %q or %q", BackendRedis, BackendMemory))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive"))
	}

	if c.MediaMaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MEDIA_MAX_UPLOAD_BYTES must be positive"))
	}
	if c.MediaConcurrency < 1 {
		errs = append(errs, fmt.Errorf("MEDIA_CONCURRENCY must be at least 1"))
	}
	if c.DraftTTL <= 0 {
		errs = append(errs, fmt.Errorf("DRAFT_TTL must be positive"))
	}
	if c.LoginRateLimit <= 0 || c.LoginRateBurst < 1 {
		errs = append(errs, fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_RATE_BURST must be positive"))
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether cookies must be Secure.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Postgres returns the pool settings for the report store.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// EventsEnabled reports whether a Kafka producer should be built.
func (c *Config) EventsEnabled() bool {
	for _, b := range c.KafkaBrokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}
