package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/infrastructure/logger"
	"github.com/iho/gofinance/internal/usecase"
)

// SessionCookieName is the cookie holding the session token.
const SessionCookieName = "session"

type sessionContextKey struct{}

// SessionAuth authenticates requests by session token.
type SessionAuth struct {
	issuer usecase.SessionIssuer
	store  usecase.SessionStore
}

// NewSessionAuth creates the middleware. store may be nil, in which case
// logged-out sessions stay valid until they expire.
func NewSessionAuth(issuer usecase.SessionIssuer, store usecase.SessionStore) *SessionAuth {
	return &SessionAuth{issuer: issuer, store: store}
}

// Require rejects requests without a live session. Browsers are sent to the
// login page; API clients get 401.
func (a *SessionAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := a.authenticate(r)
		if err != nil {
			if errors.Is(err, domain.ErrStoreUnavailable) {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("session revocation check failed")
				writeFailure(w, r, http.StatusServiceUnavailable, "service unavailable")
				return
			}

			if !WantsJSON(r) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			writeFailure(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		logger.WithUserID(r.Context(), session.UserID)
		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
	})
}

// Optional attaches the session when one is present and valid.
func (a *SessionAuth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := a.authenticate(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
	})
}

func (a *SessionAuth) authenticate(r *http.Request) (*domain.Session, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	session, err := a.issuer.Verify(token)
	if err != nil {
		return nil, err
	}

	if a.store != nil {
		revoked, err := a.store.IsRevoked(r.Context(), session.ID)
		if err != nil {
			return nil, errors.Join(domain.ErrStoreUnavailable, err)
		}
		if revoked {
			return nil, domain.ErrInvalidToken
		}
	}

	return session, nil
}

// TokenFromRequest returns the bearer token, falling back to the session
// cookie.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

// ContextWithSession stores session in ctx.
func ContextWithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext extracts the authenticated session from context
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(*domain.Session)
	return session, ok && session != nil
}

// WantsJSON reports whether the client asked for a JSON response.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeFailure(w http.ResponseWriter, r *http.Request, status int, message string) {
	if WantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
		return
	}

	http.Error(w, message, status)
}
