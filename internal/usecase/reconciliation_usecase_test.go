package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
	"github.com/iho/gofinance/internal/usecase/mocks"
)

func TestReconcileUser(t *testing.T) {
	t.Parallel()

	ledger, _ := seedPortfolio(t)

	uc := usecase.NewReconciliationUseCase(ledger, ledger, ledger, initialCash)

	result, err := uc.ReconcileUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.IsReconciled {
		t.Fatalf("expected reconciled user, got difference %s", result.Difference)
	}
	if result.Entries != 4 {
		t.Errorf("expected 4 entries, got %d", result.Entries)
	}
	if !result.CalculatedCash.Equal(decimal.NewFromInt(8400)) {
		t.Errorf("expected calculated cash 8400, got %s", result.CalculatedCash)
	}
}

func TestReconcileUser_Mismatch(t *testing.T) {
	t.Parallel()

	ledger, _ := seedPortfolio(t)
	ledger.SetCash("user-1", decimal.NewFromInt(8500))

	uc := usecase.NewReconciliationUseCase(ledger, ledger, ledger, initialCash)

	result, err := uc.ReconcileUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.IsReconciled {
		t.Fatal("expected mismatch")
	}
	if !result.Difference.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected difference 100, got %s", result.Difference)
	}
}

func TestReconcileUser_Errors(t *testing.T) {
	t.Parallel()

	ledger := mocks.NewLedger()
	uc := usecase.NewReconciliationUseCase(ledger, ledger, ledger, initialCash)

	if _, err := uc.ReconcileUser(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	ledger.AddUser("user-1", initialCash)
	ledger.OnList = func(context.Context, string) error { return errors.New("statement timeout") }

	if _, err := uc.ReconcileUser(context.Background(), "user-1"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestReconcileUser_ReplaysFromRecordedOpeningCash(t *testing.T) {
	t.Parallel()

	// Registered while INITIAL_CASH was 2500; the setting has since moved on.
	ledger := mocks.NewLedger()
	ledger.AddUser("veteran", decimal.NewFromInt(2500))

	uc := usecase.NewReconciliationUseCase(ledger, ledger, ledger, initialCash)

	result, err := uc.ReconcileUser(context.Background(), "veteran")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsReconciled {
		t.Fatalf("expected reconciled user, got difference %s", result.Difference)
	}
	if !result.CalculatedCash.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("expected calculated cash 2500, got %s", result.CalculatedCash)
	}
}

func TestReconcileUser_FallsBackToInitialCash(t *testing.T) {
	t.Parallel()

	ledger := mocks.NewLedger()
	ledger.AddUser("legacy", initialCash)
	ledger.SetOpeningCash("legacy", decimal.NullDecimal{})

	uc := usecase.NewReconciliationUseCase(ledger, ledger, ledger, initialCash)

	result, err := uc.ReconcileUser(context.Background(), "legacy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsReconciled || !result.CalculatedCash.Equal(initialCash) {
		t.Fatalf("expected replay from %s, got %s", initialCash, result.CalculatedCash)
	}
}

func TestReconcileAll(t *testing.T) {
	t.Parallel()

	ledger := mocks.NewLedger()
	quotes := mocks.NewQuoteBoard()
	quotes.Set("AAPL", "Apple Inc.", decimal.RequireFromString("187.44"))
	trades := usecase.NewTradeUseCase(ledger, ledger, ledger, quotes, &mocks.SequenceIDGenerator{})

	// More users than one page so paging is exercised.
	total := usecase.ReconcileBatchSize + 3
	for i := 0; i < total; i++ {
		id := fmt.Sprintf("user-%04d", i)
		ledger.AddUser(id, initialCash)
		if i%50 == 0 {
			if _, err := trades.Buy(context.Background(), usecase.TradeInput{UserID: id, Symbol: "AAPL", Shares: 3}); err != nil {
				t.Fatalf("seed buy for %s: %v", id, err)
			}
		}
	}
	ledger.SetCash("user-0007", decimal.NewFromInt(1))

	uc := usecase.NewReconciliationUseCase(ledger, ledger, ledger, initialCash)

	results, err := uc.ReconcileAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != total {
		t.Fatalf("expected %d results, got %d", total, len(results))
	}

	mismatches := usecase.Mismatches(results)
	if len(mismatches) != 1 || mismatches[0].UserID != "user-0007" {
		t.Fatalf("expected only user-0007 to mismatch, got %d mismatches", len(mismatches))
	}
}
