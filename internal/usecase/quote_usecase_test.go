package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
	"github.com/iho/gofinance/internal/usecase/mocks"
)

func TestQuoteUseCase_Lookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockQuoteProvider(ctrl)

	provider.EXPECT().Lookup(gomock.Any(), "NFLX").
		Return(&domain.Quote{Symbol: "NFLX", Name: "Netflix, Inc.", Price: decimal.RequireFromString("412.05")}, nil)

	uc := usecase.NewQuoteUseCase(provider)

	quote, err := uc.Lookup(context.Background(), " nflx ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Name != "Netflix, Inc." {
		t.Errorf("unexpected quote: %+v", quote)
	}
}

func TestQuoteUseCase_LookupErrors(t *testing.T) {
	tests := []struct {
		name      string
		symbol    string
		setup     func(*mocks.MockQuoteProvider)
		errorType error
	}{
		{
			name:      "empty symbol never reaches provider",
			symbol:    "",
			errorType: domain.ErrValidation,
		},
		{
			name:   "unknown symbol",
			symbol: "ZZZZ",
			setup: func(p *mocks.MockQuoteProvider) {
				p.EXPECT().Lookup(gomock.Any(), "ZZZZ").Return(nil, domain.ErrUnknownSymbol)
			},
			errorType: domain.ErrUnknownSymbol,
		},
		{
			name:   "transport error is unavailable",
			symbol: "AAPL",
			setup: func(p *mocks.MockQuoteProvider) {
				p.EXPECT().Lookup(gomock.Any(), "AAPL").Return(nil, errors.New("i/o timeout"))
			},
			errorType: domain.ErrQuoteUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			provider := mocks.NewMockQuoteProvider(ctrl)
			if tt.setup != nil {
				tt.setup(provider)
			}

			_, err := usecase.NewQuoteUseCase(provider).Lookup(context.Background(), tt.symbol)
			if !errors.Is(err, tt.errorType) {
				t.Fatalf("expected %v, got %v", tt.errorType, err)
			}
		})
	}
}
