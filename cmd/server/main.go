package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/gofinance/internal/adapter/http"
	"github.com/iho/gofinance/internal/adapter/http/handler"
	"github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/adapter/quote"
	postgresRepo "github.com/iho/gofinance/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gofinance/internal/adapter/repository/redis"
	"github.com/iho/gofinance/internal/infrastructure/auth"
	"github.com/iho/gofinance/internal/infrastructure/config"
	"github.com/iho/gofinance/internal/infrastructure/eventpublisher"
	"github.com/iho/gofinance/internal/infrastructure/logger"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
	"github.com/iho/gofinance/internal/infrastructure/postgres"
	"github.com/iho/gofinance/internal/infrastructure/redis"
	"github.com/iho/gofinance/internal/usecase"
)

const (
	developmentSecret     = "development-only-secret"
	limiterCleanupEvery   = time.Minute
	limiterMaxIdle        = 10 * time.Minute
	readHeaderTimeout     = 5 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger
	zerolog.DefaultContextLogger = &appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) error {
	secret := cfg.SessionSecret
	if secret == "" {
		log.Warn().Msg("SESSION_SECRET is empty, using an insecure development secret")
		secret = developmentSecret
	}

	// Run migrations
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return err
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegisterer(registry)

	// Quotes and trade events
	quotes, err := newQuoteProvider(cfg, m)
	if err != nil {
		return err
	}

	publisher, closePublisher := newEventPublisher(cfg)
	defer func() {
		if err := closePublisher(); err != nil {
			log.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	txRepo := postgresRepo.NewTransactionRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	sessionStore := redisRepo.NewSessionStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	tradeUC := usecase.NewTradeUseCase(txManager, userRepo, txRepo, quotes, idGen,
		usecase.WithRetrier(postgresRepo.NewRetrier()),
		usecase.WithEventPublisher(publisher),
		usecase.WithMetrics(m),
	)
	// Runs before the publisher is closed.
	defer tradeUC.Wait()
	portfolioUC := usecase.NewPortfolioUseCase(txManager, userRepo, txRepo, quotes)
	quoteUC := usecase.NewQuoteUseCase(quotes)
	userUC := usecase.NewUserUseCase(userRepo, auth.NewBcryptHasher(bcrypt.DefaultCost), idGen, cfg.InitialCash)
	reconcileUC := usecase.NewReconciliationUseCase(txManager, userRepo, txRepo, cfg.InitialCash)

	sessions := auth.NewSessionManager(secret, cfg.SessionTTL)
	rateLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:           appLogger,
		Metrics:          m,
		Gatherer:         registry,
		SessionAuth:      middleware.NewSessionAuth(sessions, sessionStore),
		RateLimiter:      rateLimiter,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		PortfolioHandler: handler.NewPortfolioHandler(portfolioUC),
		TradeHandler:     handler.NewTradeHandler(tradeUC, portfolioUC),
		QuoteHandler:     handler.NewQuoteHandler(quoteUC),
		AuthHandler:      handler.NewAuthHandler(userUC, sessions, sessionStore, m, cfg.CookieSecure),
		ReconcileHandler: handler.NewReconcileHandler(reconcileUC, m),
		HealthHandler:    handler.NewHealthHandler(pool, redis.NewPinger(redisClient)),
	})

	// Create server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		rateLimiter.RunCleanup(gctx, limiterCleanupEvery, limiterMaxIdle)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newQuoteProvider builds the configured provider. The HTTP provider is
// wrapped with per-attempt timeouts and retries.
func newQuoteProvider(cfg *config.Config, recorder quote.Recorder) (usecase.QuoteProvider, error) {
	switch cfg.QuoteProvider {
	case config.QuoteProviderStatic:
		quotes, err := quote.ParseStaticQuotes(cfg.QuoteStatic)
		if err != nil {
			return nil, fmt.Errorf("parse QUOTE_STATIC: %w", err)
		}
		return quote.NewStaticProvider(quotes), nil

	case config.QuoteProviderHTTP:
		if cfg.QuoteAPIKey == "" {
			log.Warn().Msg("QUOTE_API_KEY is empty, quote lookups will likely be rejected")
		}
		provider := quote.NewHTTPProvider(&http.Client{}, quote.HTTPConfig{
			BaseURL:    cfg.QuoteBaseURL,
			APIKey:     cfg.QuoteAPIKey,
			PricePath:  cfg.QuotePricePath,
			NamePath:   cfg.QuoteNamePath,
			SymbolPath: cfg.QuoteSymbolPath,
		})
		return quote.NewResilientProvider(provider, cfg.QuoteTimeout, cfg.QuoteMaxRetries, recorder), nil

	default:
		return nil, fmt.Errorf("unknown quote provider %q", cfg.QuoteProvider)
	}
}

// newEventPublisher returns a kafka publisher when brokers are configured and
// a log-only publisher otherwise.
func newEventPublisher(cfg *config.Config) (usecase.EventPublisher, func() error) {
	if len(cfg.KafkaBrokers) == 0 {
		return eventpublisher.NewLogPublisher(), func() error { return nil }
	}

	publisher := eventpublisher.NewKafkaPublisher(eventpublisher.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
	log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing trade events to kafka")

	return publisher, publisher.Close
}
