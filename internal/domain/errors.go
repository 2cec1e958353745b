package domain

import (
	"errors"
	"fmt"
)

var (
	// Trade errors
	ErrValidation         = errors.New("invalid request")
	ErrUnknownSymbol      = errors.New("unknown symbol")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")

	// Dependency errors
	ErrQuoteUnavailable = errors.New("quote service unavailable")
	ErrStoreUnavailable = errors.New("store unavailable")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username and/or password")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

// QuoteError reports which symbol could not be priced.
type QuoteError struct {
	Symbol string
	Err    error
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("quote for %s: %v", e.Symbol, e.Err)
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the caller may retry the same request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrQuoteUnavailable)
}
