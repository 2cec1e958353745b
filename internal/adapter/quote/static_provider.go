package quote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
)

// StaticProvider serves quotes from a fixed table.
type StaticProvider struct {
	quotes map[string]domain.Quote
}

// NewStaticProvider creates a StaticProvider from quotes keyed by symbol.
func NewStaticProvider(quotes []domain.Quote) *StaticProvider {
	table := make(map[string]domain.Quote, len(quotes))
	for _, q := range quotes {
		q.Symbol = domain.NormalizeSymbol(q.Symbol)
		table[q.Symbol] = q
	}

	return &StaticProvider{quotes: table}
}

// ParseStaticQuotes parses "AAPL=Apple Inc.:150.25,NFLX=Netflix:412" into
// quotes. The name may be omitted ("AAPL=150.25").
func ParseStaticQuotes(raw string) ([]domain.Quote, error) {
	var quotes []domain.Quote

	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		symbol, rest, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("static quote %q: missing '='", item)
		}

		symbol = domain.NormalizeSymbol(symbol)
		if err := domain.ValidateSymbol(symbol); err != nil {
			return nil, fmt.Errorf("static quote %q: %w", item, err)
		}

		name, rawPrice := symbol, rest
		if i := strings.LastIndex(rest, ":"); i >= 0 {
			name, rawPrice = strings.TrimSpace(rest[:i]), rest[i+1:]
		}

		price, err := decimal.NewFromString(strings.TrimSpace(rawPrice))
		if err != nil {
			return nil, fmt.Errorf("static quote %q: invalid price: %w", item, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("static quote %q: price must be positive", item)
		}

		quotes = append(quotes, domain.Quote{Symbol: symbol, Name: name, Price: price})
	}

	return quotes, nil
}

// Lookup returns the configured quote for symbol.
func (p *StaticProvider) Lookup(_ context.Context, symbol string) (*domain.Quote, error) {
	q, ok := p.quotes[domain.NormalizeSymbol(symbol)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, symbol)
	}

	q.FetchedAt = time.Now().UTC()
	return &q, nil
}
