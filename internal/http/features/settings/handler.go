package settings

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/internal/httputil"
	"github.com/tendant/nexus-crm/pkg/auth"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/validate"
)

// Handler handles profile settings.
type Handler struct {
	logger         *slog.Logger
	identity       *auth.IdentityService
	sessionService *auth.SessionService
	cookieConfig   httputil.CookieConfig
}

// NewHandler creates a new settings handler.
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

// UpdateResponse is the persisted profile and the re-issued session.
type UpdateResponse struct {
	User      *domain.User      `json:"user"`
	Principal *domain.Principal `json:"principal"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Update changes name, currency or timezone and re-issues the session so
// the cached principal matches the stored profile.
// PATCH /v1/settings
// Requires authentication
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	token, ok := middleware.GetToken(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req validate.SettingsInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.identity.UpdateSettings(r.Context(), tenantID, req)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	fresh, principal, err := h.sessionService.RefreshPrincipal(r.Context(), token, domain.ProfilePatch{
		Name:     &user.Name,
		Currency: &user.Currency,
		Timezone: &user.Timezone,
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.SetSessionCookie(w, fresh.Value, fresh.ExpiresAt, h.cookieConfig)
	httputil.JSON(w, http.StatusOK, UpdateResponse{
		User:      user,
		Principal: principal,
		Token:     fresh.Value,
		ExpiresAt: fresh.ExpiresAt,
	})
}
