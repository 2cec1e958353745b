package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a registered trader with a simulated cash balance.
type User struct {
	ID       string
	Username string
	Hash     string
	Cash     decimal.Decimal
	// OpeningCash is the balance granted at registration. It is invalid for
	// accounts created before it was recorded.
	OpeningCash decimal.NullDecimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateDebit checks that the user can pay amount without going negative.
func (u *User) ValidateDebit(amount decimal.Decimal) error {
	if u.Cash.Sub(amount).IsNegative() {
		return ErrInsufficientFunds
	}

	return nil
}

// ApplyDebit returns the cash balance after paying amount.
func (u *User) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return u.Cash.Sub(amount)
}

// ApplyCredit returns the cash balance after receiving amount.
func (u *User) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return u.Cash.Add(amount)
}
