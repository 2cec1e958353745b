package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
)

// TradeUseCase executes market buy and sell orders against the ledger.
type TradeUseCase struct {
	txManager TransactionManager
	userRepo  UserRepository
	txRepo    TransactionRepository
	quotes    QuoteProvider
	idGen     IDGenerator
	retrier   Retrier
	publisher EventPublisher
	metrics   MetricsRecorder
	now       func() time.Time

	publishTimeout time.Duration
	publishing     sync.WaitGroup
}

// TradeOption configures optional TradeUseCase collaborators.
type TradeOption func(*TradeUseCase)

// WithRetrier retries the database unit of work on transient errors.
func WithRetrier(r Retrier) TradeOption {
	return func(uc *TradeUseCase) { uc.retrier = r }
}

// WithEventPublisher publishes committed trades.
func WithEventPublisher(p EventPublisher) TradeOption {
	return func(uc *TradeUseCase) { uc.publisher = p }
}

// WithMetrics records trade outcomes.
func WithMetrics(m MetricsRecorder) TradeOption {
	return func(uc *TradeUseCase) { uc.metrics = m }
}

// WithPublishTimeout bounds each background event publish.
func WithPublishTimeout(d time.Duration) TradeOption {
	return func(uc *TradeUseCase) { uc.publishTimeout = d }
}

// WithClock overrides the clock used to timestamp entries.
func WithClock(now func() time.Time) TradeOption {
	return func(uc *TradeUseCase) { uc.now = now }
}

// NewTradeUseCase creates a new TradeUseCase.
func NewTradeUseCase(
	txManager TransactionManager,
	userRepo UserRepository,
	txRepo TransactionRepository,
	quotes QuoteProvider,
	idGen IDGenerator,
	opts ...TradeOption,
) *TradeUseCase {
	uc := &TradeUseCase{
		txManager: txManager,
		userRepo:  userRepo,
		txRepo:    txRepo,
		quotes:    quotes,
		idGen:     idGen,
		retrier:   noRetry{},
		publisher: noopPublisher{},
		metrics:   noopMetrics{},
		now:       time.Now,

		publishTimeout: DefaultPublishTimeout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// TradeInput represents input for a buy or sell.
type TradeInput struct {
	UserID string
	Symbol string
	Shares int64
}

// Buy purchases shares at the current quoted price.
func (uc *TradeUseCase) Buy(ctx context.Context, input TradeInput) (*domain.Transaction, error) {
	return uc.execute(ctx, domain.SideBuy, input)
}

// Sell sells previously bought shares at the current quoted price.
func (uc *TradeUseCase) Sell(ctx context.Context, input TradeInput) (*domain.Transaction, error) {
	return uc.execute(ctx, domain.SideSell, input)
}

func (uc *TradeUseCase) execute(ctx context.Context, side domain.Side, input TradeInput) (*domain.Transaction, error) {
	start := time.Now()

	entry, err := uc.trade(ctx, side, input)
	uc.metrics.ObserveTrade(side, outcomeOf(err), time.Since(start))

	logger := zerolog.Ctx(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			logger.Error().Err(err).
				Str("side", string(side)).
				Str("user_id", input.UserID).
				Str("symbol", input.Symbol).
				Msg("trade failed")
		}

		return nil, err
	}

	uc.metrics.ObserveTradeValue(side, entry.Price.Mul(decimal.NewFromInt(entry.Shares)).Abs())

	logger.Info().
		Str("side", string(side)).
		Str("user_id", entry.UserID).
		Str("symbol", entry.Symbol).
		Int64("shares", entry.Shares).
		Str("price", entry.Price.String()).
		Msg("trade executed")

	uc.publish(ctx, domain.NewTradeExecutedEvent(entry))

	return entry, nil
}

// publish hands the event to the publisher without holding up the caller.
// The trade is already committed, so the publish outlives the request.
func (uc *TradeUseCase) publish(ctx context.Context, event domain.TradeExecutedEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.publishTimeout)

	uc.publishing.Add(1)
	go func() {
		defer uc.publishing.Done()
		defer cancel()

		if err := uc.publisher.PublishTrade(ctx, event); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).
				Str("transaction_id", event.TransactionID).
				Msg("failed to publish trade event")
		}
	}()
}

// Wait blocks until every background event publish has returned.
func (uc *TradeUseCase) Wait() {
	uc.publishing.Wait()
}

func (uc *TradeUseCase) trade(ctx context.Context, side domain.Side, input TradeInput) (*domain.Transaction, error) {
	// 0. Validate inputs before touching any dependency
	symbol := domain.NormalizeSymbol(input.Symbol)
	if err := domain.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	if err := domain.ValidateShares(input.Shares); err != nil {
		return nil, err
	}

	// 1. Resolve the price outside the database transaction
	quote, err := uc.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, quoteError(symbol, err)
	}

	quote.Price = quote.Price.Round(domain.PriceScale)
	if !quote.Price.IsPositive() {
		return nil, &domain.QuoteError{Symbol: symbol, Err: fmt.Errorf("%w: non-positive price", domain.ErrQuoteUnavailable)}
	}

	// 2. Check and apply under the user's row lock
	var entry *domain.Transaction
	err = uc.retrier.Retry(ctx, func() error {
		var err error
		entry, err = uc.commit(ctx, side, input.UserID, symbol, quote, input.Shares)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *TradeUseCase) commit(
	ctx context.Context,
	side domain.Side,
	userID, symbol string,
	quote *domain.Quote,
	shares int64,
) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	defer tx.Rollback(ctx)

	user, err := uc.userRepo.GetForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, storeError(err)
	}

	amount := quote.Cost(shares)

	var (
		newCash decimal.Decimal
		signed  int64
	)

	switch side {
	case domain.SideBuy:
		if err := user.ValidateDebit(amount); err != nil {
			return nil, fmt.Errorf("%w: need %s, have %s", err, amount.StringFixed(2), user.Cash.StringFixed(2))
		}

		newCash = user.ApplyDebit(amount)
		signed = shares
	case domain.SideSell:
		entries, err := uc.txRepo.ListByUserTx(ctx, tx, userID)
		if err != nil {
			return nil, storeError(err)
		}

		held := domain.ComputeHoldings(entries)[symbol]
		if shares > held {
			return nil, fmt.Errorf("%w: hold %d shares of %s", domain.ErrInsufficientShares, held, symbol)
		}

		newCash = user.ApplyCredit(amount)
		signed = -shares
	default:
		return nil, fmt.Errorf("%w: unknown side %q", domain.ErrValidation, side)
	}

	now := uc.now().UTC()
	entry := &domain.Transaction{
		ID:           uc.idGen.Generate(),
		UserID:       userID,
		Symbol:       symbol,
		Shares:       signed,
		Price:        quote.Price,
		TransactedAt: now,
	}

	if err := uc.userRepo.UpdateCash(ctx, tx, userID, newCash, now); err != nil {
		return nil, storeError(err)
	}

	if err := uc.txRepo.Append(ctx, tx, entry); err != nil {
		return nil, storeError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeError(err)
	}

	return entry, nil
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error { return operation() }

type noopPublisher struct{}

func (noopPublisher) PublishTrade(context.Context, domain.TradeExecutedEvent) error { return nil }

type noopMetrics struct{}

func (noopMetrics) ObserveTrade(domain.Side, string, time.Duration) {}

func (noopMetrics) ObserveTradeValue(domain.Side, decimal.Decimal) {}
