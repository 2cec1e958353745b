package handler

import (
	"context"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// TradeService executes buys and sells.
type TradeService interface {
	Buy(ctx context.Context, input usecase.TradeInput) (*domain.Transaction, error)
	Sell(ctx context.Context, input usecase.TradeInput) (*domain.Transaction, error)
}

// PortfolioService derives holdings, valuations and history from the ledger.
type PortfolioService interface {
	ComputeHoldings(ctx context.Context, userID string) (domain.Holdings, error)
	ComputeSnapshot(ctx context.Context, userID string) (*domain.Snapshot, error)
	History(ctx context.Context, userID string) ([]*domain.Transaction, error)
}

// QuoteService looks up prices.
type QuoteService interface {
	Lookup(ctx context.Context, symbol string) (*domain.Quote, error)
}

// UserService manages accounts and credentials.
type UserService interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.User, error)
	ChangePassword(ctx context.Context, input usecase.ChangePasswordInput) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// ReconciliationService checks a user's cash against their ledger.
type ReconciliationService interface {
	ReconcileUser(ctx context.Context, userID string) (*usecase.ReconciliationResult, error)
}
