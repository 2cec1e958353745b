package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
)

// UserRepository defines data access for users and their cash balance.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetCash(ctx context.Context, tx Transaction, id string) (decimal.Decimal, error)
	GetOpeningCash(ctx context.Context, tx Transaction, id string) (decimal.NullDecimal, error)
	GetForUpdate(ctx context.Context, tx Transaction, id string) (*domain.User, error)
	UpdateCash(ctx context.Context, tx Transaction, id string, cash decimal.Decimal, updatedAt time.Time) error
	UpdateHash(ctx context.Context, id, hash string, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

// TransactionRepository defines data access for the append-only ledger.
type TransactionRepository interface {
	Append(ctx context.Context, tx Transaction, entry *domain.Transaction) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Transaction, error)
	ListByUserTx(ctx context.Context, tx Transaction, userID string) ([]*domain.Transaction, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
	// BeginReadOnly starts a read-only transaction that sees a single
	// consistent snapshot of the ledger.
	BeginReadOnly(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient store errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// QuoteProvider resolves a ticker to its current price. It returns
// domain.ErrUnknownSymbol when the ticker does not exist and
// domain.ErrQuoteUnavailable when the provider cannot answer.
type QuoteProvider interface {
	Lookup(ctx context.Context, symbol string) (*domain.Quote, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// SessionIssuer issues and verifies session tokens.
type SessionIssuer interface {
	Issue(user *domain.User) (string, *domain.Session, error)
	Verify(token string) (*domain.Session, error)
}

// SessionStore tracks revoked sessions.
type SessionStore interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// EventPublisher delivers trade events to external systems.
type EventPublisher interface {
	PublishTrade(ctx context.Context, event domain.TradeExecutedEvent) error
}

// MetricsRecorder records business metrics.
type MetricsRecorder interface {
	ObserveTrade(side domain.Side, outcome string, duration time.Duration)
	ObserveTradeValue(side domain.Side, value decimal.Decimal)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key whose request did not complete.
	Delete(ctx context.Context, key string) error
}
