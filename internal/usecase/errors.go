package usecase

import (
	"errors"
	"fmt"

	"github.com/iho/gofinance/internal/domain"
)

var businessErrors = []error{
	domain.ErrValidation,
	domain.ErrUnknownSymbol,
	domain.ErrInsufficientFunds,
	domain.ErrInsufficientShares,
	domain.ErrQuoteUnavailable,
	domain.ErrStoreUnavailable,
	domain.ErrUserNotFound,
	domain.ErrUsernameTaken,
	domain.ErrInvalidCredentials,
	domain.ErrPasswordMismatch,
}

// storeError classifies a repository error. Domain errors pass through;
// anything else is a store failure.
func storeError(err error) error {
	if err == nil {
		return nil
	}

	for _, known := range businessErrors {
		if errors.Is(err, known) {
			return err
		}
	}

	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

// quoteError classifies a quote provider error for symbol.
func quoteError(symbol string, err error) error {
	if errors.Is(err, domain.ErrUnknownSymbol) || errors.Is(err, domain.ErrQuoteUnavailable) {
		return err
	}

	return &domain.QuoteError{Symbol: symbol, Err: fmt.Errorf("%w: %w", domain.ErrQuoteUnavailable, err)}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrValidation):
		return OutcomeValidation
	case errors.Is(err, domain.ErrUnknownSymbol):
		return OutcomeUnknownSymbol
	case errors.Is(err, domain.ErrInsufficientFunds):
		return OutcomeInsufficientFunds
	case errors.Is(err, domain.ErrInsufficientShares):
		return OutcomeInsufficientShares
	case errors.Is(err, domain.ErrQuoteUnavailable):
		return OutcomeQuoteUnavailable
	default:
		return OutcomeStoreUnavailable
	}
}
