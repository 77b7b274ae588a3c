package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/review-admin/internal/analytics"
	"github.com/utafrali/review-admin/internal/config"
	"github.com/utafrali/review-admin/internal/event"
	handler "github.com/utafrali/review-admin/internal/handler/http"
	"github.com/utafrali/review-admin/internal/repository"
	"github.com/utafrali/review-admin/internal/repository/memory"
	"github.com/utafrali/review-admin/internal/repository/postgres"
	redisrepo "github.com/utafrali/review-admin/internal/repository/redis"
	"github.com/utafrali/review-admin/internal/service"
	"github.com/utafrali/review-admin/pkg/database"
	"github.com/utafrali/review-admin/pkg/health"
	"github.com/utafrali/review-admin/pkg/httpclient"
	pkgkafka "github.com/utafrali/review-admin/pkg/kafka"
	"github.com/utafrali/review-admin/pkg/middleware"
	"github.com/utafrali/review-admin/pkg/tracing"
)

// ServiceName identifies this service in logs, metrics and traces.
const ServiceName = "review-admin"

const serviceVersion = "0.1.0"

// idempotencyKeyPrefix namespaces processed event ids in redis.
const idempotencyKeyPrefix = "review-admin:events:"

// App wires together all dependencies and runs the review admin service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server

	// Optional infrastructure; nil when the matching backend is disabled.
	pool        *pgxpool.Pool
	redis       *goredis.Client
	producer    *pkgkafka.Producer
	dlq         *pkgkafka.DLQProducer
	consumer    *pkgkafka.Consumer
	consumerRun chan struct{}
	memoryStore *pkgkafka.MemoryIdempotencyStore
	reportCache *analytics.CachedProvider
	// sweeping is set once Run has started the cache expiry loops.
	sweeping bool

	// stop ends background work tied to the app's lifetime, such as rate
	// limiter cleanup.
	stop           context.CancelFunc
	tracerShutdown tracing.Shutdown
}

// NewApp creates a new application instance, initializing all dependencies.
// Resources acquired before a failure are released.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bgCtx, stop := context.WithCancel(context.Background())
	a := &App{cfg: cfg, logger: logger, stop: stop}
	defer func() {
		if err != nil {
			_ = a.release()
		}
	}()

	// Initialize OpenTelemetry tracing.
	a.tracerShutdown, err = tracing.Init(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	healthHandler := health.NewHandler(cfg.HealthCheckTimeout)

	reviews, err := a.reviewRepository(ctx, healthHandler)
	if err != nil {
		return nil, err
	}
	settings, err := a.settingsRepository(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	// Event publishing.
	var publisher pkgkafka.Publisher = pkgkafka.NewNoopPublisher(logger)
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := pingKafkaWithRetry(ctx, a.producer, logger); err != nil {
			logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		healthHandler.Register("kafka", a.producer.Ping)
		publisher = a.producer
	} else {
		logger.Info("kafka disabled, domain events are dropped")
	}

	// Build the dependency graph.
	eventProducer := event.NewProducer(publisher, logger)
	reviewService := service.NewReviewService(reviews, settings, eventProducer, logger)
	settingsService := service.NewSettingsService(settings, eventProducer, logger)

	provider, err := a.analyticsProvider()
	if err != nil {
		return nil, err
	}
	analyticsService := service.NewAnalyticsService(provider, logger)

	if cfg.KafkaEnabled {
		a.consumer = a.submissionConsumer(reviewService)
	}

	// HTTP router.
	router := handler.NewRouter(reviewService, settingsService, analyticsService, healthHandler, handler.RouterConfig{
		ServiceName:   ServiceName,
		ValidateToken: middleware.NewHMACValidator(a.jwtSecret()),
		SubmitLimiter: middleware.NewRateLimiter(bgCtx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger,
			middleware.WithTrustedProxies(cfg.TrustedProxyCIDRs)),
		CORS:             a.corsConfig(),
		AdminCacheMaxAge: cfg.AdminCacheMaxAge,
		PprofCIDRs:       cfg.PprofAllowedCIDRs,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// reviewRepository selects the review store. The postgres store is migrated
// before use; the memory store is seeded from SEED_FILE or the built-in
// sample reviews.
func (a *App) reviewRepository(ctx context.Context, hh *health.Handler) (repository.ReviewRepository, error) {
	cfg := a.cfg
	if cfg.ReviewStore == config.StorePostgres {
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), a.logger)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		a.logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)

		collector := database.NewPoolStatsCollector(database.PgxPoolStats(pool), ServiceName)
		if err := prometheus.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, fmt.Errorf("register pool metrics: %w", err)
			}
		}

		if err := postgres.Migrate(ctx, pool, a.logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		a.logger.Info("database migrations completed")

		hh.Register("postgres", pool.Ping)
		tracer := database.NewQueryTracer("postgresql", cfg.SlowQueryThreshold(), a.logger)
		return postgres.NewReviewRepository(pool, tracer), nil
	}

	seed := memory.SampleReviews()
	if cfg.SeedFile != "" {
		var err error
		if seed, err = memory.LoadSeedFile(cfg.SeedFile); err != nil {
			return nil, err
		}
	}
	a.logger.Info("using in-memory review store", slog.Int("reviews", len(seed)))
	return memory.NewReviewRepository(seed), nil
}

// settingsRepository selects the settings store.
func (a *App) settingsRepository(ctx context.Context, hh *health.Handler) (repository.SettingsRepository, error) {
	cfg := a.cfg
	if cfg.SettingsStore != config.StoreRedis {
		a.logger.Info("using in-memory settings store")
		return memory.NewSettingsRepository(), nil
	}

	client, err := database.NewRedisClient(ctx, cfg.Redis(), a.logger)
	if err != nil {
		return nil, err
	}
	a.redis = client
	a.logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	hh.Register("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	tracer := database.NewQueryTracer("redis", a.cfg.SlowQueryThreshold(), a.logger)
	return redisrepo.NewSettingsRepository(client, tracer), nil
}

// analyticsProvider builds the report chain: the analytics service behind a
// circuit breaker and a TTL cache, falling back to the sample report. Without
// a service URL only the sample report is served.
func (a *App) analyticsProvider() (analytics.Provider, error) {
	static, err := analytics.NewStaticProvider()
	if err != nil {
		return nil, err
	}
	if a.cfg.AnalyticsServiceURL == "" {
		a.logger.Info("analytics service not configured, serving sample report")
		return static, nil
	}

	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("analytics"),
		a.logger,
	)
	var provider analytics.Provider = analytics.NewHTTPProvider(client, a.cfg.AnalyticsServiceURL, static, a.logger)

	if a.cfg.AnalyticsCacheTTL > 0 {
		a.reportCache = analytics.NewCachedProvider(provider, a.cfg.AnalyticsCacheTTL)
		provider = a.reportCache
	}
	return provider, nil
}

// submissionConsumer consumes storefront submissions. Processed event ids
// are tracked in redis when it is configured so that deduplication survives
// restarts.
func (a *App) submissionConsumer(submitter event.Submitter) *pkgkafka.Consumer {
	var store pkgkafka.IdempotencyStore
	if a.redis != nil {
		store = pkgkafka.NewRedisIdempotencyStore(a.redis, idempotencyKeyPrefix, a.cfg.KafkaIdempotencyTTL)
	} else {
		a.memoryStore = pkgkafka.NewMemoryIdempotencyStore(a.cfg.KafkaIdempotencyTTL)
		store = a.memoryStore
	}

	a.dlq = pkgkafka.NewDLQProducer(a.cfg.KafkaBrokers, a.logger)
	return event.NewSubmissionConsumer(event.ConsumerSettings{
		Brokers:    a.cfg.KafkaBrokers,
		MaxRetries: a.cfg.KafkaMaxRetries,
	}, event.NewSubmissionHandler(submitter, a.logger), store, a.dlq, a.logger)
}

// jwtSecret returns the configured secret. Outside production a missing
// secret is replaced by a random one, which leaves the admin API closed.
func (a *App) jwtSecret() string {
	if a.cfg.JWTSecret != "" {
		return a.cfg.JWTSecret
	}
	a.logger.Warn("JWT_SECRET not set, admin API will reject all tokens")
	return uuid.NewString()
}

func (a *App) corsConfig() middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = a.cfg.CORSAllowedOrigins
	return cors
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and the submission consumer, then blocks until
// the context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)

	if a.reportCache != nil {
		go a.reportCache.Start()
	}
	if a.memoryStore != nil {
		go a.memoryStore.Start()
	}
	a.sweeping = true

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Start the Kafka consumer. It stops on its own once ctx is canceled.
	if a.consumer != nil {
		a.consumerRun = make(chan struct{})
		go func() {
			defer close(a.consumerRun)
			if err := a.consumer.Run(ctx); err != nil {
				errCh <- fmt.Errorf("review submission consumer: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		a.logger.Error("component failed, shutting down", slog.String("error", runErr.Error()))
	}

	// Stop the consumer before its reader is closed.
	cancel()
	shutdownErr := a.Shutdown()
	return errors.Join(runErr, shutdownErr)
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka consumer, then producers
// 4. Redis and PostgreSQL
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	if a.consumerRun != nil {
		select {
		case <-a.consumerRun:
		case <-time.After(5 * time.Second):
			a.logger.Warn("review submission consumer did not stop in time")
		}
	}

	if err := a.release(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// release closes infrastructure clients. It is safe to call on a partially
// built App.
func (a *App) release() error {
	var errs []error

	a.stop()
	if a.sweeping {
		if a.reportCache != nil {
			a.reportCache.Stop()
		}
		if a.memoryStore != nil {
			a.memoryStore.Stop()
		}
		a.sweeping = false
	}
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracerShutdown != nil {
		_ = a.tracerShutdown(context.Background())
	}

	return errors.Join(errs...)
}

// pingKafkaWithRetry attempts to ping the Kafka producer with exponential
// backoff (3 attempts, 1s/2s/4s with ±25% jitter).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	const attempts = 3

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}

		base := time.Duration(1<<uint(attempt)) * time.Second
		jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- non-cryptographic jitter for retry backoff
		wait := base + jitter
		logger.Warn("kafka producer ping failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", attempts),
			slog.Duration("backoff", wait),
			slog.String("error", lastErr.Error()),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka ping: context canceled during retry: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("kafka producer ping failed after %d attempts: %w", attempts, lastErr)
}
