package usecase

import (
	"context"

	"github.com/iho/gofinance/internal/domain"
)

// QuoteUseCase is a read-through to the quote provider. It never touches
// the ledger.
type QuoteUseCase struct {
	quotes QuoteProvider
}

// NewQuoteUseCase creates a new QuoteUseCase.
func NewQuoteUseCase(quotes QuoteProvider) *QuoteUseCase {
	return &QuoteUseCase{quotes: quotes}
}

// Lookup validates the symbol and returns its current quote.
func (uc *QuoteUseCase) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if err := domain.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	quote, err := uc.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, quoteError(symbol, err)
	}

	return quote, nil
}
