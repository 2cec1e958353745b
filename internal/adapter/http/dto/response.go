package dto

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// QuoteResponse represents a price quote.
type QuoteResponse struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// QuoteFromDomain converts a domain quote.
func QuoteFromDomain(q *domain.Quote) QuoteResponse {
	return QuoteResponse{
		Symbol:    q.Symbol,
		Name:      q.Name,
		Price:     q.Price,
		FetchedAt: q.FetchedAt,
	}
}

// TransactionResponse represents one ledger entry.
type TransactionResponse struct {
	ID           string          `json:"id"`
	Symbol       string          `json:"symbol"`
	Side         domain.Side     `json:"side"`
	Shares       int64           `json:"shares"`
	Price        decimal.Decimal `json:"price"`
	TransactedAt time.Time       `json:"transacted_at"`
}

// TransactionFromDomain converts a ledger entry.
func TransactionFromDomain(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		Symbol:       t.Symbol,
		Side:         t.Side(),
		Shares:       t.Shares,
		Price:        t.Price,
		TransactedAt: t.TransactedAt,
	}
}

// TransactionsFromDomain converts ledger entries, keeping their order.
func TransactionsFromDomain(entries []*domain.Transaction) []TransactionResponse {
	result := make([]TransactionResponse, len(entries))
	for i, t := range entries {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// PositionResponse is one row of a portfolio.
type PositionResponse struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Total  decimal.Decimal `json:"total"`
}

// SnapshotResponse is a valued portfolio.
type SnapshotResponse struct {
	Positions  []PositionResponse `json:"positions"`
	Cash       decimal.Decimal    `json:"cash"`
	GrandTotal decimal.Decimal    `json:"grand_total"`
}

// SnapshotFromDomain converts a snapshot.
func SnapshotFromDomain(s *domain.Snapshot) SnapshotResponse {
	positions := make([]PositionResponse, len(s.Positions))
	for i, p := range s.Positions {
		positions[i] = PositionResponse{
			Symbol: p.Symbol,
			Name:   p.Name,
			Shares: p.Shares,
			Price:  p.Price,
			Total:  p.Total,
		}
	}

	return SnapshotResponse{
		Positions:  positions,
		Cash:       s.Cash,
		GrandTotal: s.GrandTotal,
	}
}

// UserResponse represents a user without credentials.
type UserResponse struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Cash     decimal.Decimal `json:"cash"`
}

// UserFromDomain converts a user.
func UserFromDomain(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Cash: u.Cash}
}

// SessionResponse is returned by login and registration.
type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// ReconciliationResponse reports whether a user's cash matches the ledger.
type ReconciliationResponse struct {
	UserID         string          `json:"user_id"`
	RecordedCash   decimal.Decimal `json:"recorded_cash"`
	CalculatedCash decimal.Decimal `json:"calculated_cash"`
	Difference     decimal.Decimal `json:"difference"`
	Entries        int             `json:"entries"`
	IsReconciled   bool            `json:"is_reconciled"`
	CheckedAt      time.Time       `json:"checked_at"`
}

// ReconciliationFromResult converts a reconciliation result.
func ReconciliationFromResult(r *usecase.ReconciliationResult) ReconciliationResponse {
	return ReconciliationResponse{
		UserID:         r.UserID,
		RecordedCash:   r.RecordedCash,
		CalculatedCash: r.CalculatedCash,
		Difference:     r.Difference,
		Entries:        r.Entries,
		IsReconciled:   r.IsReconciled,
		CheckedAt:      r.LastChecked,
	}
}

// USD formats an amount as US dollars, e.g. $1,234.56.
func USD(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}
