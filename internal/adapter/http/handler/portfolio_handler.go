package handler

import (
	"net/http"

	"github.com/iho/gofinance/internal/adapter/http/dto"
)

// PortfolioHandler serves the portfolio and history pages.
type PortfolioHandler struct {
	portfolio PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolio PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolio: portfolio}
}

// Index handles GET /.
func (h *PortfolioHandler) Index(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.portfolio.ComputeSnapshot(r.Context(), currentSession(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, "index", dto.SnapshotFromDomain(snapshot))
}

// History handles GET /history.
func (h *PortfolioHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.portfolio.History(r.Context(), currentSession(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, "history", dto.TransactionsFromDomain(entries))
}
