package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/domain"
)

func TestPortfolioHandler_Index(t *testing.T) {
	f := newFixture(t)
	f.buy(t, "NFLX", 10)
	h := NewPortfolioHandler(f.portfolio)

	rec := httptest.NewRecorder()
	h.Index(rec, withSession(httptest.NewRequest(http.MethodGet, "/", nil), "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	for _, want := range []string{"NFLX", "$4,000.00", "$6,000.00", "$10,000.00", "Log Out (user-1)"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in page", want)
		}
	}
}

func TestPortfolioHandler_IndexJSON(t *testing.T) {
	f := newFixture(t)
	f.buy(t, "AAPL", 2)
	f.quotes.Set("AAPL", "Apple Inc.", decimal.NewFromInt(200))
	h := NewPortfolioHandler(f.portfolio)

	rec := httptest.NewRecorder()
	h.Index(rec, asJSON(withSession(httptest.NewRequest(http.MethodGet, "/", nil), "user-1")))

	var resp dto.SnapshotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Bought at 150.25, valued at the current 200.
	if len(resp.Positions) != 1 || !resp.Positions[0].Total.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("unexpected positions %+v", resp.Positions)
	}
	if !resp.GrandTotal.Equal(decimal.RequireFromString("10099.5")) {
		t.Fatalf("unexpected grand total %s", resp.GrandTotal)
	}
}

func TestPortfolioHandler_IndexFailsWhenAHoldingCannotBePriced(t *testing.T) {
	f := newFixture(t)
	f.buy(t, "AAPL", 1)
	f.quotes.Fail("AAPL", domain.ErrQuoteUnavailable)
	h := NewPortfolioHandler(f.portfolio)

	rec := httptest.NewRecorder()
	h.Index(rec, withSession(httptest.NewRequest(http.MethodGet, "/", nil), "user-1"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestPortfolioHandler_History(t *testing.T) {
	f := newFixture(t)
	f.buy(t, "AAPL", 3)
	f.buy(t, "NFLX", 1)
	h := NewPortfolioHandler(f.portfolio)

	rec := httptest.NewRecorder()
	h.History(rec, asJSON(withSession(httptest.NewRequest(http.MethodGet, "/history", nil), "user-1")))

	var resp []dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 2 || resp[0].Symbol != "AAPL" || resp[1].Symbol != "NFLX" {
		t.Fatalf("expected history in trade order, got %+v", resp)
	}
}

func TestPortfolioHandler_HistoryStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.ledger.OnList = func(_ context.Context, _ string) error { return errors.New("connection reset by peer") }
	h := NewPortfolioHandler(f.portfolio)

	rec := httptest.NewRecorder()
	h.History(rec, withSession(httptest.NewRequest(http.MethodGet, "/history", nil), "user-1"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatal("store error details must not reach the user")
	}
}
