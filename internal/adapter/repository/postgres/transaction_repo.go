package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/infrastructure/postgres/generated"
	"github.com/iho/gofinance/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository over the
// append-only transactions table.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepository(pool)
}

func newTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// Append inserts a ledger entry inside tx.
func (r *TransactionRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.Transaction) error {
	return txQueries(tx).CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:           entry.ID,
		UserID:       entry.UserID,
		Symbol:       entry.Symbol,
		Shares:       entry.Shares,
		Price:        decimalToNumeric(entry.Price),
		TransactedAt: timeToPgTimestamptz(entry.TransactedAt),
	})
}

// ListByUser returns the user's ledger in execution order.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	return listTransactions(ctx, r.queries, userID)
}

// ListByUserTx is ListByUser inside tx, seeing the transaction's snapshot
// and any row locks it holds.
func (r *TransactionRepository) ListByUserTx(ctx context.Context, tx usecase.Transaction, userID string) ([]*domain.Transaction, error) {
	return listTransactions(ctx, txQueries(tx), userID)
}

func listTransactions(ctx context.Context, q *generated.Queries, userID string) ([]*domain.Transaction, error) {
	rows, err := q.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &domain.Transaction{
			ID:           row.ID,
			UserID:       row.UserID,
			Symbol:       row.Symbol,
			Shares:       row.Shares,
			Price:        numericToDecimal(row.Price),
			TransactedAt: row.TransactedAt.Time,
		})
	}

	return entries, nil
}
