package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Transaction is an immutable ledger entry. Shares is positive for a buy
// and negative for a sell.
type Transaction struct {
	TransactedAt time.Time
	ID           string
	UserID       string
	Symbol       string
	Shares       int64
	Price        decimal.Decimal
}

// Side reports whether the entry bought or sold shares.
func (t *Transaction) Side() Side {
	if t.Shares < 0 {
		return SideSell
	}

	return SideBuy
}

// Amount is the signed cash movement caused by the entry: negative for a
// buy, positive for a sell.
func (t *Transaction) Amount() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Shares)).Neg()
}
