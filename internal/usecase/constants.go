package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from holding user row locks
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultPublishTimeout bounds how long a committed trade's event may
	// take to reach the broker
	DefaultPublishTimeout = 5 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyProcessingMarker is stored under a key while its first
	// request is still running
	IdempotencyProcessingMarker = "processing"

	// ReconcileBatchSize is how many users are loaded per page when reconciling all users
	ReconcileBatchSize = 500
)

// Trade outcomes reported to the MetricsRecorder.
const (
	OutcomeSuccess            = "success"
	OutcomeValidation         = "validation"
	OutcomeUnknownSymbol      = "unknown_symbol"
	OutcomeInsufficientFunds  = "insufficient_funds"
	OutcomeInsufficientShares = "insufficient_shares"
	OutcomeQuoteUnavailable   = "quote_unavailable"
	OutcomeStoreUnavailable   = "store_unavailable"
)
