package quote

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// Outcomes reported to a Recorder.
const (
	OutcomeSuccess     = "success"
	OutcomeUnknown     = "unknown_symbol"
	OutcomeUnavailable = "unavailable"
)

// Recorder records quote lookup outcomes.
type Recorder interface {
	ObserveQuote(outcome string, duration time.Duration)
}

// ResilientProvider bounds each lookup with a timeout and retries lookups
// that failed with domain.ErrQuoteUnavailable. Unknown symbols are never
// retried.
type ResilientProvider struct {
	next            usecase.QuoteProvider
	timeout         time.Duration
	maxRetries      uint64
	initialInterval time.Duration
	metrics         Recorder
}

// NewResilientProvider wraps next.
func NewResilientProvider(next usecase.QuoteProvider, timeout time.Duration, maxRetries int, metrics Recorder) *ResilientProvider {
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &ResilientProvider{
		next:            next,
		timeout:         timeout,
		maxRetries:      uint64(maxRetries),
		initialInterval: 100 * time.Millisecond,
		metrics:         metrics,
	}
}

// Lookup implements usecase.QuoteProvider.
func (p *ResilientProvider) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	start := time.Now()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initialInterval
	b.MaxInterval = 2 * time.Second

	var (
		quote   *domain.Quote
		attempt int
	)

	err := backoff.Retry(func() error {
		attempt++

		var err error
		quote, err = p.attempt(ctx, symbol)
		if err == nil {
			return nil
		}

		if !errors.Is(err, domain.ErrQuoteUnavailable) {
			return backoff.Permanent(err)
		}

		zerolog.Ctx(ctx).Debug().Err(err).
			Str("symbol", symbol).
			Int("attempt", attempt).
			Msg("quote lookup failed")

		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, p.maxRetries), ctx))

	if p.metrics != nil {
		p.metrics.ObserveQuote(quoteOutcome(err), time.Since(start))
	}

	if err != nil {
		// backoff returns the bare context error once ctx is done.
		if !errors.Is(err, domain.ErrQuoteUnavailable) && !errors.Is(err, domain.ErrUnknownSymbol) {
			return nil, unavailable(symbol, err)
		}
		return nil, err
	}

	return quote, nil
}

func (p *ResilientProvider) attempt(ctx context.Context, symbol string) (*domain.Quote, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	quote, err := p.next.Lookup(ctx, symbol)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownSymbol) || errors.Is(err, domain.ErrQuoteUnavailable) {
			return nil, err
		}
		return nil, unavailable(symbol, err)
	}

	return quote, nil
}

func quoteOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrUnknownSymbol):
		return OutcomeUnknown
	default:
		return OutcomeUnavailable
	}
}
