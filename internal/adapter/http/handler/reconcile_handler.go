package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
)

// ReconcileHandler shows whether the user's cash agrees with their ledger.
type ReconcileHandler struct {
	reconciler ReconciliationService
	metrics    *metrics.Metrics
}

// NewReconcileHandler creates a new ReconcileHandler.
func NewReconcileHandler(reconciler ReconciliationService, m *metrics.Metrics) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler, metrics: m}
}

// Reconcile handles GET /reconcile.
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciler.ReconcileUser(r.Context(), currentSession(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}

	if !result.IsReconciled {
		h.metrics.ObserveMismatches(1)
		zerolog.Ctx(r.Context()).Warn().
			Str("recorded_cash", result.RecordedCash.String()).
			Str("calculated_cash", result.CalculatedCash.String()).
			Msg("cash out of balance with ledger")
	}

	respond(w, r, http.StatusOK, "reconcile", dto.ReconciliationFromResult(result))
}
