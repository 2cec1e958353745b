package handler

import (
	"net/http"

	"github.com/iho/gofinance/internal/adapter/http/dto"
)

// QuoteHandler handles quote lookups.
type QuoteHandler struct {
	quotes QuoteService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(quotes QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// Form handles GET /quote.
func (h *QuoteHandler) Form(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "quote", nil)
}

// Lookup handles POST /quote.
func (h *QuoteHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	form := dto.QuoteFormFromRequest(r)
	if err := dto.Validate(form); err != nil {
		fail(w, r, err)
		return
	}

	quote, err := h.quotes.Lookup(r.Context(), form.Symbol)
	if err != nil {
		fail(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, "quoted", dto.QuoteFromDomain(quote))
}
