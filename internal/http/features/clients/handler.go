package clients

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/internal/httputil"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository"
	"github.com/tendant/nexus-crm/pkg/validate"
)

// Handler handles client endpoints.
type Handler struct {
	logger  *slog.Logger
	clients repository.ClientStore
}

// NewHandler creates a new clients handler.
func NewHandler(logger *slog.Logger, clients repository.ClientStore) *Handler {
	return &Handler{logger: logger, clients: clients}
}

// List returns the tenant's clients, most recently updated first.
// GET /v1/clients?status=&search=&order_by=&order=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := repository.ClientFilter{
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
		OrderBy: httputil.OrderingFromQuery(r),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.ClientStatus(raw)
		if !status.Valid() {
			httputil.WriteError(w, h.logger, domain.NewValidationError("status", "must be one of lead, active, past"))
			return
		}
		filter.Status = &status
	}

	clients, err := h.clients.List(r.Context(), tenantID, filter)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, clients)
}

// Get returns a client with its deals, tasks and notes.
// GET /v1/clients/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := httputil.URLID(r, "id")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrClientNotFound)
		return
	}

	detail, err := h.clients.GetDetail(r.Context(), tenantID, id)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, detail)
}

// Create adds a client. Status defaults to lead.
// POST /v1/clients
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req validate.ClientInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	draft, err := validate.ClientCreate(req)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	client, err := h.clients.Create(r.Context(), tenantID, draft)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, client)
}

// Update applies a partial update.
// PATCH /v1/clients/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := httputil.URLID(r, "id")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrClientNotFound)
		return
	}

	var req validate.ClientInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	patch, err := validate.ClientUpdate(req)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	client, err := h.clients.Update(r.Context(), tenantID, id, patch)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, client)
}

// Delete removes a client. Its deals and tasks are kept without a client;
// its notes are removed.
// DELETE /v1/clients/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := httputil.URLID(r, "id")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrClientNotFound)
		return
	}

	if err := h.clients.Delete(r.Context(), tenantID, id); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.Deleted(w)
}
