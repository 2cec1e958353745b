package handler

import (
	"context"
	"net/http"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// TradeHandler handles buy and sell requests.
type TradeHandler struct {
	trades    TradeService
	portfolio PortfolioService
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(trades TradeService, portfolio PortfolioService) *TradeHandler {
	return &TradeHandler{trades: trades, portfolio: portfolio}
}

// BuyForm handles GET /buy.
func (h *TradeHandler) BuyForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "buy", nil)
}

// SellForm handles GET /sell. The form only offers symbols the user holds.
func (h *TradeHandler) SellForm(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.portfolio.ComputeHoldings(r.Context(), currentSession(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}

	render(w, r, http.StatusOK, "sell", holdings.Symbols())
}

// Buy handles POST /buy.
func (h *TradeHandler) Buy(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, h.trades.Buy)
}

// Sell handles POST /sell.
func (h *TradeHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, h.trades.Sell)
}

func (h *TradeHandler) execute(
	w http.ResponseWriter,
	r *http.Request,
	trade func(context.Context, usecase.TradeInput) (*domain.Transaction, error),
) {
	input, err := dto.TradeFormFromRequest(r).ToUseCaseInput(currentSession(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}

	txn, err := trade(r.Context(), input)
	if err != nil {
		fail(w, r, err)
		return
	}

	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
