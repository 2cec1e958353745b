package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
	"github.com/iho/gofinance/internal/usecase"
)

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	users        UserService
	sessions     usecase.SessionIssuer
	revocations  usecase.SessionStore
	metrics      *metrics.Metrics
	secureCookie bool
}

// NewAuthHandler creates a new auth handler. revocations may be nil, in
// which case logging out only clears the cookie.
func NewAuthHandler(
	users UserService,
	sessions usecase.SessionIssuer,
	revocations usecase.SessionStore,
	m *metrics.Metrics,
	secureCookie bool,
) *AuthHandler {
	return &AuthHandler{
		users:        users,
		sessions:     sessions,
		revocations:  revocations,
		metrics:      m,
		secureCookie: secureCookie,
	}
}

// RegisterForm handles GET /register.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "register", nil)
}

// Register handles POST /register and logs the new user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	input, err := dto.RegisterFormFromRequest(r).ToUseCaseInput()
	if err != nil {
		fail(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), input)
	if err != nil {
		fail(w, r, err)
		return
	}

	h.metrics.UsersRegistered.Inc()
	zerolog.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("user registered")

	h.startSession(w, r, http.StatusCreated, user)
}

// LoginForm handles GET /login.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "login", nil)
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := dto.LoginFormFromRequest(r)
	if err := dto.Validate(form); err != nil {
		fail(w, r, err)
		return
	}

	user, err := h.users.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.metrics.AuthAttempts.WithLabelValues("failure").Inc()
		}
		fail(w, r, err)
		return
	}

	h.metrics.AuthAttempts.WithLabelValues("success").Inc()
	h.startSession(w, r, http.StatusOK, user)
}

// Logout handles GET /logout. The session is denylisted until it would have
// expired anyway.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session, ok := middleware.SessionFromContext(r.Context()); ok && h.revocations != nil {
		if ttl := time.Until(session.ExpiresAt); ttl > 0 {
			if err := h.revocations.Revoke(r.Context(), session.ID, ttl); err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Str("session_id", session.ID).Msg("failed to revoke session")
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	if middleware.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ChangePasswordForm handles GET /change_password.
func (h *AuthHandler) ChangePasswordForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "change_password", nil)
}

// ChangePassword handles POST /change_password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	input, err := dto.ChangePasswordFormFromRequest(r).ToUseCaseInput(currentSession(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}

	if err := h.users.ChangePassword(r.Context(), input); err != nil {
		fail(w, r, err)
		return
	}

	if middleware.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Me returns the current authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), currentSession(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	token, session, err := h.sessions.Issue(user)
	if err != nil {
		fail(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	if middleware.WantsJSON(r) {
		writeJSON(w, status, dto.SessionResponse{
			Token:     token,
			ExpiresAt: session.ExpiresAt,
			User:      dto.UserFromDomain(user),
		})
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
