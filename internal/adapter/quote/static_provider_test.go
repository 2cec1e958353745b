package quote

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
)

func TestParseStaticQuotes(t *testing.T) {
	quotes, err := ParseStaticQuotes("AAPL=Apple Inc.:150.25, nflx=Netflix: Streaming:412 ,MSFT=33.3333,")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(quotes) != 3 {
		t.Fatalf("expected 3 quotes, got %d", len(quotes))
	}

	p := NewStaticProvider(quotes)

	tests := []struct {
		symbol string
		name   string
		price  string
	}{
		{"aapl", "Apple Inc.", "150.25"},
		{"NFLX", "Netflix: Streaming", "412"},
		{"MSFT", "MSFT", "33.3333"},
	}

	for _, tt := range tests {
		q, err := p.Lookup(context.Background(), tt.symbol)
		if err != nil {
			t.Fatalf("lookup %s: %v", tt.symbol, err)
		}
		if q.Name != tt.name || !q.Price.Equal(decimal.RequireFromString(tt.price)) {
			t.Errorf("lookup %s: unexpected quote %+v", tt.symbol, q)
		}
	}
}

func TestParseStaticQuotesErrors(t *testing.T) {
	for _, raw := range []string{
		"AAPL",
		"=Apple:1",
		"AAPL=Apple:abc",
		"AAPL=Apple:0",
		"AAPL=-2",
	} {
		if _, err := ParseStaticQuotes(raw); err == nil {
			t.Errorf("ParseStaticQuotes(%q): expected error", raw)
		}
	}
}

func TestStaticProviderUnknownSymbol(t *testing.T) {
	p := NewStaticProvider(nil)

	if _, err := p.Lookup(context.Background(), "AAPL"); !errors.Is(err, domain.ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestStaticProviderReturnsCopies(t *testing.T) {
	p := NewStaticProvider([]domain.Quote{{Symbol: "AAPL", Name: "Apple", Price: decimal.NewFromInt(100)}})

	q, _ := p.Lookup(context.Background(), "AAPL")
	q.Price = decimal.Zero

	again, _ := p.Lookup(context.Background(), "AAPL")
	if !again.Price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("table was mutated through a returned quote: %s", again.Price)
	}
}
