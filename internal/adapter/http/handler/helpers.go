package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// apology is the body of the error page.
type apology struct {
	Status  int
	Message string
}

// respond writes data as JSON for API clients and renders the named page
// for everyone else.
func respond(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if middleware.WantsJSON(r) {
		writeJSON(w, status, data)
		return
	}

	render(w, r, status, name, data)
}

// fail reports err to the client. Store failures are logged and shown as a
// generic message.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := mapDomainError(err)

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("request failed")
	}
	if domain.IsRetryable(err) {
		w.Header().Set("Retry-After", "1")
	}

	if middleware.WantsJSON(r) {
		writeError(w, status, message, "")
		return
	}

	render(w, r, status, "apology", apology{Status: status, Message: message})
}

// mapDomainError maps domain errors to HTTP status codes and the reason
// shown to the user.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, validationDetail(err)
	case errors.Is(err, domain.ErrUnknownSymbol):
		return http.StatusBadRequest, "invalid symbol"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusBadRequest, "can't afford"
	case errors.Is(err, domain.ErrInsufficientShares):
		return http.StatusBadRequest, "too many shares"
	case errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusBadRequest, "passwords don't match"
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict, "username taken"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusForbidden, "invalid username and/or password"
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized, "login required"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrQuoteUnavailable):
		return http.StatusServiceUnavailable, "quote service unavailable, try again"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func validationDetail(err error) string {
	msg := err.Error()
	if _, detail, ok := strings.Cut(msg, domain.ErrValidation.Error()+": "); ok && detail != "" {
		return detail
	}
	return domain.ErrValidation.Error()
}

// currentSession returns the session attached by the auth middleware.
func currentSession(r *http.Request) *domain.Session {
	session, _ := middleware.SessionFromContext(r.Context())
	if session == nil {
		return &domain.Session{}
	}
	return session
}
