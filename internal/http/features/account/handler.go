package account

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/internal/httputil"
	"github.com/tendant/nexus-crm/internal/metrics"
	"github.com/tendant/nexus-crm/pkg/auth"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/validate"
)

// Handler handles signup, login, refresh, logout and the current-user endpoint.
type Handler struct {
	logger         *slog.Logger
	identity       *auth.IdentityService
	sessionService *auth.SessionService
	cookieConfig   httputil.CookieConfig
}

// NewHandler creates a new account handler.
func NewHandler(
	logger *slog.Logger,
	identity *auth.IdentityService,
	sessionService *auth.SessionService,
	cookieConfig httputil.CookieConfig,
) *Handler {
	return &Handler{
		logger:         logger,
		identity:       identity,
		sessionService: sessionService,
		cookieConfig:   cookieConfig,
	}
}

// SignupResponse is returned after a successful signup.
type SignupResponse struct {
	UserID uuid.UUID `json:"user_id"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse carries the signed-in principal and its token. Browser
// clients can ignore the token and rely on the cookie.
type SessionResponse struct {
	Principal *domain.Principal `json:"principal"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// MeResponse is the current principal plus the persisted profile.
type MeResponse struct {
	Principal *domain.Principal `json:"principal"`
	User      *domain.User      `json:"user"`
}

// Signup registers a new account.
// POST /v1/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req validate.SignupInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	userID, err := h.identity.Register(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, SignupResponse{UserID: userID})
}

// Login verifies credentials and starts a session.
// POST /v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	principal, err := h.identity.Authenticate(r.Context(), req.Email, req.Password)
	metrics.ObserveLogin(err == nil)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	token, err := h.sessionService.Issue(principal)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.SetSessionCookie(w, token.Value, token.ExpiresAt, h.cookieConfig)
	httputil.JSON(w, http.StatusOK, SessionResponse{
		Principal: principal,
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
	})
}

// Logout revokes the current session.
// POST /v1/auth/logout
// Requires authentication
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.GetToken(r.Context()); ok {
		if err := h.sessionService.Revoke(r.Context(), token); err != nil {
			h.logger.Warn("failed to revoke session", "error", err)
		}
	}

	httputil.ClearSessionCookie(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}

// Refresh swaps the current session token for a fresh one with a new expiry.
// POST /v1/auth/refresh
// Requires authentication
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	current, ok := middleware.GetToken(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	token, principal, err := h.sessionService.RefreshPrincipal(r.Context(), current, domain.ProfilePatch{})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.SetSessionCookie(w, token.Value, token.ExpiresAt, h.cookieConfig)
	httputil.JSON(w, http.StatusOK, SessionResponse{
		Principal: principal,
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
	})
}

// Me returns the current principal and profile.
// GET /v1/me
// Requires authentication
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.identity.Profile(r.Context(), principal.UserID)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, MeResponse{Principal: principal, User: user})
}
