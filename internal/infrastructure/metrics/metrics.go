package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Trade metrics
	Trades        *prometheus.CounterVec
	TradeDuration *prometheus.HistogramVec
	TradeValue    *prometheus.HistogramVec

	// Quote metrics
	QuoteLookups  *prometheus.CounterVec
	QuoteDuration prometheus.Histogram

	// Reconciliation metrics
	ReconcileMismatches prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Identity metrics
	UsersRegistered prometheus.Counter
	AuthAttempts    *prometheus.CounterVec

	// Idempotency metrics
	IdempotentReplays prometheus.Counter

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics with the default registerer
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics and registers them with reg
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Trade metrics
		Trades: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_trades_total",
				Help: "Total trade attempts by side and outcome",
			},
			[]string{"side", "outcome"},
		),
		TradeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gofinance_trade_duration_seconds",
				Help:    "Duration of trade operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"side"},
		),
		TradeValue: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gofinance_trade_value",
				Help:    "Cash value of executed trades",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"side"},
		),

		// Quote metrics
		QuoteLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_quote_lookups_total",
				Help: "Total quote provider lookups by outcome",
			},
			[]string{"outcome"},
		),
		QuoteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gofinance_quote_duration_seconds",
			Help:    "Duration of quote lookups including retries",
			Buckets: prometheus.DefBuckets,
		}),

		ReconcileMismatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "gofinance_reconcile_mismatches_total",
			Help: "Users whose cash did not match their replayed ledger",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gofinance_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gofinance_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "gofinance_users_registered_total",
			Help: "Total number of registered users",
		}),
		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),

		IdempotentReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "gofinance_idempotent_replays_total",
			Help: "Responses served from the idempotency store",
		}),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofinance_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"route"},
		),
	}
}

// ObserveTrade records a trade attempt and its duration.
func (m *Metrics) ObserveTrade(side domain.Side, outcome string, duration time.Duration) {
	m.Trades.WithLabelValues(string(side), outcome).Inc()
	m.TradeDuration.WithLabelValues(string(side)).Observe(duration.Seconds())
}

// ObserveTradeValue records the cash value of an executed trade.
func (m *Metrics) ObserveTradeValue(side domain.Side, value decimal.Decimal) {
	m.TradeValue.WithLabelValues(string(side)).Observe(value.Abs().InexactFloat64())
}

// ObserveQuote records a quote lookup.
func (m *Metrics) ObserveQuote(outcome string, duration time.Duration) {
	m.QuoteLookups.WithLabelValues(outcome).Inc()
	m.QuoteDuration.Observe(duration.Seconds())
}

// ObserveMismatches counts users found out of balance.
func (m *Metrics) ObserveMismatches(n int) {
	m.ReconcileMismatches.Add(float64(n))
}
