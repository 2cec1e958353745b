package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places stored for prices and cash.
const PriceScale = 4

// Quote is a price observation for a ticker. It is only valid for the
// instant it was fetched.
type Quote struct {
	FetchedAt time.Time
	Symbol    string
	Name      string
	Price     decimal.Decimal
}

// Cost returns the cash value of shares at the quoted price.
func (q *Quote) Cost(shares int64) decimal.Decimal {
	return q.Price.Mul(decimal.NewFromInt(shares))
}
