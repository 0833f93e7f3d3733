package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/jdufresne12/web-portal/migrations"
	"github.com/jdufresne12/web-portal/pkg/database"
	"github.com/jdufresne12/web-portal/pkg/health"
	"github.com/jdufresne12/web-portal/pkg/httpclient"
	pkgkafka "github.com/jdufresne12/web-portal/pkg/kafka"
	"github.com/jdufresne12/web-portal/pkg/middleware"
	"github.com/jdufresne12/web-portal/pkg/tracing"

	"github.com/jdufresne12/web-portal/internal/backend"
	"github.com/jdufresne12/web-portal/internal/cache"
	cachememory "github.com/jdufresne12/web-portal/internal/cache/memory"
	cacheredis "github.com/jdufresne12/web-portal/internal/cache/redis"
	"github.com/jdufresne12/web-portal/internal/config"
	"github.com/jdufresne12/web-portal/internal/draft"
	"github.com/jdufresne12/web-portal/internal/event"
	handler "github.com/jdufresne12/web-portal/internal/handler/http"
	"github.com/jdufresne12/web-portal/internal/repository"
	"github.com/jdufresne12/web-portal/internal/repository/postgres"
	"github.com/jdufresne12/web-portal/internal/service"
	"github.com/jdufresne12/web-portal/internal/storage"
	storagememory "github.com/jdufresne12/web-portal/internal/storage/memory"
	storages3 "github.com/jdufresne12/web-portal/internal/storage/s3"
)

// draftSweepInterval is how often expired media drafts are released.
const draftSweepInterval = time.Minute

// App wires together all dependencies and runs the sponsors hub.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	drafts         *draft.Store
	httpServer     *http.Server
	tracerShutdown func(context.Context) error

	// background stops the draft sweeper and the login limiter cleanup.
	background context.Context
	stop       context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	a.background, a.stop = context.WithCancel(context.Background())

	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    handler.ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		Endpoint:       cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	recordCache, err := a.newCache(ctx)
	if err != nil {
		return nil, err
	}
	healthHandler.Register("cache", recordCache.Ping)

	objects, err := a.newStorage(ctx)
	if err != nil {
		return nil, err
	}
	healthHandler.Register("storage", objects.Ping)

	reports, err := a.newReportRepository(ctx)
	if err != nil {
		return nil, err
	}
	if a.pool != nil {
		pool := a.pool
		healthHandler.RegisterOptional("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
	}

	var events service.EventPublisher = event.NoopProducer{}
	if cfg.EventsEnabled() {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, logger)
		healthHandler.RegisterOptional("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("record events disabled, KAFKA_BROKERS is empty")
	}

	// Backend REST client with retries and a circuit breaker.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.BackendTimeout,
		MaxRetries:      cfg.BackendMaxRetries,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 50,
	})
	cbCfg := httpclient.DefaultCircuitBreakerConfig("sponsors-backend")
	cbCfg.Timeout = cfg.BackendCBTimeout
	cbCfg.FailureRatio = cfg.BackendCBRatio
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger).
		WithFallback(backend.CircuitOpenFallback)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Duration("timeout", cbCfg.Timeout),
		slog.Float64("failure_ratio", cbCfg.FailureRatio),
	)
	api := backend.NewClient(cbClient, cfg.BackendBaseURL, logger)

	// Build the dependency graph.
	a.drafts = draft.NewStore(cfg.DraftTTL, logger)
	media := service.NewMediaSyncer(objects, api, a.drafts, cfg.MediaConcurrency, logger)
	coupons := service.NewCouponSyncer(api, cfg.CouponSyncEnabled, logger)
	sponsors := service.NewSponsorService(
		api,
		recordCache,
		service.NewStore(),
		media,
		coupons,
		reports,
		events,
		logger,
	)
	drafts := service.NewDraftService(a.drafts, cfg.MediaMaxUploadBytes, logger)
	auth := service.NewAuthService(api, logger)

	cors := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		Environment:      cfg.Environment,
	}

	router := handler.NewRouter(handler.RouterConfig{
		Sponsors:      sponsors,
		Drafts:        drafts,
		Auth:          auth,
		Health:        healthHandler,
		CORS:          cors,
		LoginLimiter:  middleware.RateLimit(a.background, cfg.LoginRateLimit, cfg.LoginRateBurst, logger),
		SecureCookies: cfg.IsProduction(),
		Logger:        logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	ok = true
	return a, nil
}

func (a *App) newCache(ctx context.Context) (cache.Cache, error) {
	if a.cfg.CacheBackend == config.BackendMemory {
		a.logger.Info("using in-memory record cache")
		return cachememory.New(a.cfg.CacheTTL, a.logger), nil
	}

	client, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     a.cfg.RedisHost,
		Port:     a.cfg.RedisPort,
		Password: a.cfg.RedisPass,
		DB:       a.cfg.RedisDB,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = client
	a.logger.Info("connected to Redis",
		slog.String("host", a.cfg.RedisHost),
		slog.Int("port", a.cfg.RedisPort),
	)
	return cacheredis.New(client, a.cfg.CacheTTL, a.logger), nil
}

func (a *App) newStorage(ctx context.Context) (storage.Storage, error) {
	if a.cfg.StorageBackend == config.BackendMemory {
		baseURL := fmt.Sprintf("http://localhost:%d/media", a.cfg.HTTPPort)
		a.logger.Warn("using in-memory object storage, uploaded media is not served",
			slog.String("base_url", baseURL),
		)
		return storagememory.New(baseURL), nil
	}

	s, err := storages3.New(ctx, storages3.Config{
		Bucket:          a.cfg.S3Bucket,
		Region:          a.cfg.S3Region,
		AccessKeyID:     a.cfg.S3AccessKeyID,
		SecretAccessKey: a.cfg.S3SecretAccessKey,
		Endpoint:        a.cfg.S3Endpoint,
		PublicURL:       a.cfg.S3PublicURL,
		UsePathStyle:    a.cfg.S3UsePathStyle,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("init s3 storage: %w", err)
	}
	a.logger.Info("s3 storage initialized",
		slog.String("bucket", a.cfg.S3Bucket),
		slog.String("region", a.cfg.S3Region),
	)
	return s, nil
}

// newReportRepository returns nil when the audit log is disabled.
func (a *App) newReportRepository(ctx context.Context) (repository.ReportRepository, error) {
	if !a.cfg.ReportsEnabled {
		a.logger.Info("mutation report audit log disabled")
		return nil, nil
	}

	pgCfg := a.cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", a.cfg.PostgresHost),
		slog.Int("port", a.cfg.PostgresPort),
		slog.String("database", a.cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, handler.ServiceName); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}
	database.SetSlowQueryLogging(a.cfg.PostgresSlowQuery, a.logger)

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	return postgres.NewReportRepository(pool), nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	go a.drafts.Run(a.background, draftSweepInterval)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.close()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.close()
	a.logger.Info("application shutdown complete")
	return nil
}

// close releases every initialized dependency. It tolerates a partially
// built App.
func (a *App) close() {
	a.stop()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
