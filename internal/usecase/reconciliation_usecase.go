package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
)

// ReconciliationUseCase checks that each user's cash matches the cash
// implied by replaying their ledger from the opening balance. Users with no
// recorded opening balance are replayed from initialCash.
type ReconciliationUseCase struct {
	txManager   TransactionManager
	userRepo    UserRepository
	txRepo      TransactionRepository
	initialCash decimal.Decimal
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	userRepo UserRepository,
	txRepo TransactionRepository,
	initialCash decimal.Decimal,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:   txManager,
		userRepo:    userRepo,
		txRepo:      txRepo,
		initialCash: initialCash,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	UserID         string
	RecordedCash   decimal.Decimal
	CalculatedCash decimal.Decimal
	Difference     decimal.Decimal
	Entries        int
	IsReconciled   bool
	LastChecked    time.Time
}

// ReconcileUser replays one user's ledger inside a single read snapshot.
func (uc *ReconciliationUseCase) ReconcileUser(ctx context.Context, userID string) (*ReconciliationResult, error) {
	tx, err := uc.txManager.BeginReadOnly(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	defer tx.Rollback(ctx)

	cash, err := uc.userRepo.GetCash(ctx, tx, userID)
	if err != nil {
		return nil, storeError(err)
	}

	opening, err := uc.userRepo.GetOpeningCash(ctx, tx, userID)
	if err != nil {
		return nil, storeError(err)
	}

	entries, err := uc.txRepo.ListByUserTx(ctx, tx, userID)
	if err != nil {
		return nil, storeError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeError(err)
	}

	start := uc.initialCash
	if opening.Valid {
		start = opening.Decimal
	}
	calculated := domain.ReplayCash(start, entries)
	diff := cash.Sub(calculated)

	return &ReconciliationResult{
		UserID:         userID,
		RecordedCash:   cash,
		CalculatedCash: calculated,
		Difference:     diff,
		Entries:        len(entries),
		IsReconciled:   diff.IsZero(),
		LastChecked:    time.Now().UTC(),
	}, nil
}

// ReconcileAll reconciles every user, page by page.
func (uc *ReconciliationUseCase) ReconcileAll(ctx context.Context) ([]*ReconciliationResult, error) {
	var results []*ReconciliationResult

	for offset := 0; ; offset += ReconcileBatchSize {
		users, err := uc.userRepo.List(ctx, ReconcileBatchSize, offset)
		if err != nil {
			return nil, storeError(err)
		}

		for _, user := range users {
			result, err := uc.ReconcileUser(ctx, user.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile user %s: %w", user.ID, err)
			}
			results = append(results, result)
		}

		if len(users) < ReconcileBatchSize {
			return results, nil
		}
	}
}

// Mismatches filters results down to unreconciled users.
func Mismatches(results []*ReconciliationResult) []*ReconciliationResult {
	var out []*ReconciliationResult
	for _, r := range results {
		if !r.IsReconciled {
			out = append(out, r)
		}
	}

	return out
}
