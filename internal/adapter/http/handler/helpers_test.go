package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
	"github.com/iho/gofinance/internal/usecase/mocks"
)

var openingCash = decimal.NewFromInt(10000)

type fixture struct {
	ledger    *mocks.Ledger
	quotes    *mocks.QuoteBoard
	trades    *usecase.TradeUseCase
	portfolio *usecase.PortfolioUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ledger := mocks.NewLedger()
	ledger.AddUser("user-1", openingCash)

	quotes := mocks.NewQuoteBoard()
	quotes.Set("AAPL", "Apple Inc.", decimal.RequireFromString("150.25"))
	quotes.Set("NFLX", "Netflix, Inc.", decimal.NewFromInt(400))

	return &fixture{
		ledger:    ledger,
		quotes:    quotes,
		trades:    usecase.NewTradeUseCase(ledger, ledger, ledger, quotes, &mocks.SequenceIDGenerator{}),
		portfolio: usecase.NewPortfolioUseCase(ledger, ledger, ledger, quotes),
	}
}

func (f *fixture) buy(t *testing.T, symbol string, shares int64) {
	t.Helper()

	if _, err := f.trades.Buy(context.Background(), usecase.TradeInput{UserID: "user-1", Symbol: symbol, Shares: shares}); err != nil {
		t.Fatalf("seed buy: %v", err)
	}
}

func withSession(req *http.Request, userID string) *http.Request {
	session := &domain.Session{
		ID:        "session-" + userID,
		UserID:    userID,
		Username:  userID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return req.WithContext(middleware.ContextWithSession(req.Context(), session))
}

func formPost(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func asJSON(req *http.Request) *http.Request {
	req.Header.Set("Accept", "application/json")
	return req
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "validation detail is shown",
			err:     fmt.Errorf("%w: must provide symbol", domain.ErrValidation),
			status:  http.StatusBadRequest,
			message: "must provide symbol",
		},
		{
			name:    "bare validation error",
			err:     domain.ErrValidation,
			status:  http.StatusBadRequest,
			message: "invalid request",
		},
		{
			name:    "unknown symbol inside quote error",
			err:     &domain.QuoteError{Symbol: "ZZZZ", Err: domain.ErrUnknownSymbol},
			status:  http.StatusBadRequest,
			message: "invalid symbol",
		},
		{
			name:    "insufficient funds",
			err:     domain.ErrInsufficientFunds,
			status:  http.StatusBadRequest,
			message: "can't afford",
		},
		{
			name:    "insufficient shares",
			err:     domain.ErrInsufficientShares,
			status:  http.StatusBadRequest,
			message: "too many shares",
		},
		{
			name:   "username taken",
			err:    domain.ErrUsernameTaken,
			status: http.StatusConflict,
		},
		{
			name:   "bad credentials",
			err:    domain.ErrInvalidCredentials,
			status: http.StatusForbidden,
		},
		{
			name:   "expired token",
			err:    domain.ErrExpiredToken,
			status: http.StatusUnauthorized,
		},
		{
			name:   "quote outage",
			err:    &domain.QuoteError{Symbol: "AAPL", Err: domain.ErrQuoteUnavailable},
			status: http.StatusServiceUnavailable,
		},
		{
			name:    "store failure hides internals",
			err:     fmt.Errorf("%w: dial tcp 10.0.0.5:5432: connection refused", domain.ErrStoreUnavailable),
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
		{
			name:    "unexpected error",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := mapDomainError(tt.err)
			if status != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, status)
			}
			if tt.message != "" && message != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, message)
			}
		})
	}
}

func TestFailRendersApology(t *testing.T) {
	rec := httptest.NewRecorder()
	fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), domain.ErrInsufficientShares)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("expected html, got %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "too many shares") {
		t.Fatalf("expected reason in body, got %s", rec.Body.String())
	}
}

func TestFailJSONSetsRetryAfterForQuoteOutage(t *testing.T) {
	rec := httptest.NewRecorder()
	fail(rec, asJSON(httptest.NewRequest(http.MethodPost, "/buy", nil)), domain.ErrQuoteUnavailable)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if !strings.Contains(rec.Body.String(), `"error":"quote service unavailable, try again"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestEveryPageParses(t *testing.T) {
	for _, name := range pageNames {
		if pages[name].Lookup("main") == nil {
			t.Errorf("page %s does not define main", name)
		}
	}
}
