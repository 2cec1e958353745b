package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/gofinance/internal/adapter/http/handler"
	"github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
	"github.com/iho/gofinance/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	// Gatherer backs /metrics; prometheus.DefaultGatherer when nil.
	Gatherer prometheus.Gatherer

	SessionAuth *middleware.SessionAuth
	// RateLimiter throttles login and registration per client.
	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	PortfolioHandler *handler.PortfolioHandler
	TradeHandler     *handler.TradeHandler
	QuoteHandler     *handler.QuoteHandler
	AuthHandler      *handler.AuthHandler
	ReconcileHandler *handler.ReconcileHandler
	HealthHandler    *handler.HealthHandler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	// RealIP trusts X-Forwarded-For, so the server must run behind a proxy
	// that overwrites it. The login limiter keys on the result.
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	r.Use(middleware.Recovery)

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Anonymous pages
	r.Group(func(r chi.Router) {
		r.Use(cfg.SessionAuth.Optional)

		r.Get("/register", cfg.AuthHandler.RegisterForm)
		r.Get("/login", cfg.AuthHandler.LoginForm)
		r.Get("/logout", cfg.AuthHandler.Logout)

		r.Group(func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.CountHits(cfg.Metrics.RateLimitHits).Limit)
			}

			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
		})
	})

	// Everything else needs a session
	r.Group(func(r chi.Router) {
		r.Use(cfg.SessionAuth.Require)

		r.Get("/", cfg.PortfolioHandler.Index)
		r.Get("/history", cfg.PortfolioHandler.History)
		r.Get("/quote", cfg.QuoteHandler.Form)
		r.Post("/quote", cfg.QuoteHandler.Lookup)
		r.Get("/buy", cfg.TradeHandler.BuyForm)
		r.Get("/sell", cfg.TradeHandler.SellForm)
		r.Get("/change_password", cfg.AuthHandler.ChangePasswordForm)
		r.Post("/change_password", cfg.AuthHandler.ChangePassword)
		r.Get("/reconcile", cfg.ReconcileHandler.Reconcile)
		r.Get("/me", cfg.AuthHandler.Me)

		r.Group(func(r chi.Router) {
			if cfg.IdempotencyStore != nil {
				idempotency := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).
					CountReplays(cfg.Metrics.IdempotentReplays)
				r.Use(idempotency.Wrap)
			}

			r.Post("/buy", cfg.TradeHandler.Buy)
			r.Post("/sell", cfg.TradeHandler.Sell)
		})
	})

	return r
}
