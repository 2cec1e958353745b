package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/gofinance/internal/domain"
)

// maxConcurrentQuotes bounds the quote lookups issued for one snapshot.
const maxConcurrentQuotes = 4

// PortfolioUseCase derives holdings and valuations from the ledger. It holds
// no state of its own.
type PortfolioUseCase struct {
	txManager TransactionManager
	userRepo  UserRepository
	txRepo    TransactionRepository
	quotes    QuoteProvider
}

// NewPortfolioUseCase creates a new PortfolioUseCase.
func NewPortfolioUseCase(
	txManager TransactionManager,
	userRepo UserRepository,
	txRepo TransactionRepository,
	quotes QuoteProvider,
) *PortfolioUseCase {
	return &PortfolioUseCase{
		txManager: txManager,
		userRepo:  userRepo,
		txRepo:    txRepo,
		quotes:    quotes,
	}
}

// ComputeHoldings returns the user's positive net holdings per symbol.
func (uc *PortfolioUseCase) ComputeHoldings(ctx context.Context, userID string) (domain.Holdings, error) {
	entries, err := uc.txRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}

	return domain.ComputeHoldings(entries), nil
}

// ComputeSnapshot values every holding at its live price. If any held
// symbol cannot be priced the whole snapshot fails with a *domain.QuoteError.
func (uc *PortfolioUseCase) ComputeSnapshot(ctx context.Context, userID string) (*domain.Snapshot, error) {
	cash, holdings, err := uc.readLedger(ctx, userID)
	if err != nil {
		return nil, err
	}

	symbols := holdings.Symbols()
	positions := make([]domain.Position, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQuotes)

	for i, symbol := range symbols {
		g.Go(func() error {
			quote, err := uc.quotes.Lookup(gctx, symbol)
			if err != nil {
				return snapshotQuoteError(symbol, err)
			}

			if !quote.Price.IsPositive() {
				return &domain.QuoteError{Symbol: symbol, Err: fmt.Errorf("%w: non-positive price", domain.ErrQuoteUnavailable)}
			}

			positions[i] = domain.NewPosition(symbol, quote, holdings[symbol])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return domain.NewSnapshot(userID, cash, positions), nil
}

// History returns the user's ledger in execution order.
func (uc *PortfolioUseCase) History(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	entries, err := uc.txRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}

	return entries, nil
}

// readLedger reads cash and holdings from one snapshot so that a trade
// committed in between is seen either entirely or not at all.
func (uc *PortfolioUseCase) readLedger(ctx context.Context, userID string) (cash decimal.Decimal, holdings domain.Holdings, err error) {
	tx, err := uc.txManager.BeginReadOnly(ctx)
	if err != nil {
		return cash, nil, storeError(err)
	}
	defer tx.Rollback(ctx)

	cash, err = uc.userRepo.GetCash(ctx, tx, userID)
	if err != nil {
		return cash, nil, storeError(err)
	}

	entries, err := uc.txRepo.ListByUserTx(ctx, tx, userID)
	if err != nil {
		return cash, nil, storeError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return cash, nil, storeError(err)
	}

	return cash, domain.ComputeHoldings(entries), nil
}

// snapshotQuoteError reports any failure to price a held symbol as
// unavailable, including a symbol the provider no longer recognises.
func snapshotQuoteError(symbol string, err error) error {
	if errors.Is(err, domain.ErrQuoteUnavailable) {
		var qe *domain.QuoteError
		if errors.As(err, &qe) {
			return err
		}

		return &domain.QuoteError{Symbol: symbol, Err: err}
	}

	if errors.Is(err, domain.ErrUnknownSymbol) {
		return &domain.QuoteError{Symbol: symbol, Err: fmt.Errorf("%w: symbol is no longer listed", domain.ErrQuoteUnavailable)}
	}

	return &domain.QuoteError{Symbol: symbol, Err: fmt.Errorf("%w: %w", domain.ErrQuoteUnavailable, err)}
}
