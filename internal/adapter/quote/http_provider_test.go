package quote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
)

func newTestHTTPProvider(t *testing.T, handler http.HandlerFunc, cfg HTTPConfig) *HTTPProvider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL + "/"
	p := NewHTTPProvider(server.Client(), cfg)
	p.now = func() time.Time { return time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC) }

	return p
}

func TestHTTPProviderLookup(t *testing.T) {
	var gotPath, gotToken string

	p := newTestHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"NFLX","companyName":"Netflix, Inc.","latestPrice":412.05}`))
	}, HTTPConfig{APIKey: "pk_test"})

	q, err := p.Lookup(context.Background(), "NFLX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/stock/NFLX/quote" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotToken != "pk_test" {
		t.Errorf("unexpected token %q", gotToken)
	}
	if q.Symbol != "NFLX" || q.Name != "Netflix, Inc." {
		t.Errorf("unexpected quote: %+v", q)
	}
	if !q.Price.Equal(decimal.RequireFromString("412.05")) {
		t.Errorf("expected price 412.05, got %s", q.Price)
	}
	if q.FetchedAt.IsZero() {
		t.Error("expected fetch time")
	}
}

func TestHTTPProviderCustomPaths(t *testing.T) {
	p := newTestHTTPProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"quotes":[{"ticker":"aapl","name":"Apple Inc.","last":"187.4400"}]}}`))
	}, HTTPConfig{
		PricePath:  "$.data.quotes[0].last",
		NamePath:   "$.data.quotes[0].name",
		SymbolPath: "$.data.quotes[*].ticker",
	})

	q, err := p.Lookup(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.Symbol != "AAPL" || q.Name != "Apple Inc." {
		t.Errorf("unexpected quote: %+v", q)
	}
	if !q.Price.Equal(decimal.RequireFromString("187.44")) {
		t.Errorf("expected price 187.44, got %s", q.Price)
	}
}

func TestHTTPProviderNameFallsBackToSymbol(t *testing.T) {
	p := newTestHTTPProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"latestPrice":10}`))
	}, HTTPConfig{})

	q, err := p.Lookup(context.Background(), "XYZ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Name != "XYZ" || q.Symbol != "XYZ" {
		t.Errorf("unexpected quote: %+v", q)
	}
}

func TestHTTPProviderErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		errorType error
	}{
		{name: "not found", status: http.StatusNotFound, body: "Unknown symbol", errorType: domain.ErrUnknownSymbol},
		{name: "empty body", status: http.StatusOK, body: "  ", errorType: domain.ErrUnknownSymbol},
		{name: "missing price", status: http.StatusOK, body: `{"symbol":"ZZZZ"}`, errorType: domain.ErrUnknownSymbol},
		{name: "null price", status: http.StatusOK, body: `{"latestPrice":null}`, errorType: domain.ErrUnknownSymbol},
		{name: "zero price", status: http.StatusOK, body: `{"latestPrice":0}`, errorType: domain.ErrUnknownSymbol},
		{name: "negative price", status: http.StatusOK, body: `{"latestPrice":-3.5}`, errorType: domain.ErrUnknownSymbol},
		{name: "server error", status: http.StatusInternalServerError, errorType: domain.ErrQuoteUnavailable},
		{name: "rate limited", status: http.StatusTooManyRequests, errorType: domain.ErrQuoteUnavailable},
		{name: "bad gateway", status: http.StatusBadGateway, errorType: domain.ErrQuoteUnavailable},
		{name: "garbage", status: http.StatusOK, body: `{"latestPrice":`, errorType: domain.ErrQuoteUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestHTTPProvider(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, HTTPConfig{})

			_, err := p.Lookup(context.Background(), "ZZZZ")
			if !errors.Is(err, tt.errorType) {
				t.Fatalf("expected %v, got %v", tt.errorType, err)
			}
			if errors.Is(tt.errorType, domain.ErrUnknownSymbol) && errors.Is(err, domain.ErrQuoteUnavailable) {
				t.Fatalf("unknown symbol must not look retryable: %v", err)
			}
		})
	}
}

func TestHTTPProviderTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	p := NewHTTPProvider(http.DefaultClient, HTTPConfig{BaseURL: server.URL})

	_, err := p.Lookup(context.Background(), "AAPL")
	if !errors.Is(err, domain.ErrQuoteUnavailable) {
		t.Fatalf("expected ErrQuoteUnavailable, got %v", err)
	}

	var qe *domain.QuoteError
	if !errors.As(err, &qe) || qe.Symbol != "AAPL" {
		t.Fatalf("expected QuoteError for AAPL, got %v", err)
	}
}

func TestHTTPProviderHonoursContext(t *testing.T) {
	release := make(chan struct{})
	p := newTestHTTPProvider(t, func(http.ResponseWriter, *http.Request) {
		<-release
	}, HTTPConfig{})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := p.Lookup(ctx, "AAPL"); !errors.Is(err, domain.ErrQuoteUnavailable) {
		t.Fatalf("expected ErrQuoteUnavailable, got %v", err)
	}
}
