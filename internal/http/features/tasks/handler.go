package tasks

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/internal/httputil"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository"
	"github.com/tendant/nexus-crm/pkg/validate"
)

// Handler handles task endpoints.
type Handler struct {
	logger *slog.Logger
	tasks  repository.TaskStore
}

// NewHandler creates a new tasks handler.
func NewHandler(logger *slog.Logger, tasks repository.TaskStore) *Handler {
	return &Handler{logger: logger, tasks: tasks}
}

// List returns the tenant's tasks, soonest due first. Tasks without a due
// date come last.
// GET /v1/tasks?status=&client_id=&search=&order_by=&order=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	filter := repository.TaskFilter{
		Search:  strings.TrimSpace(q.Get("search")),
		OrderBy: httputil.OrderingFromQuery(r),
	}
	if raw := q.Get("status"); raw != "" {
		status := domain.TaskStatus(raw)
		if !status.Valid() {
			httputil.WriteError(w, h.logger, domain.NewValidationError("status", "must be one of open, done"))
			return
		}
		filter.Status = &status
	}
	if raw := q.Get("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, h.logger, domain.NewValidationError("client_id", "must be a valid id"))
			return
		}
		filter.ClientID = &id
	}

	tasks, err := h.tasks.List(r.Context(), tenantID, filter)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, tasks)
}

// Get returns one task.
// GET /v1/tasks/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := httputil.URLID(r, "id")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrTaskNotFound)
		return
	}

	task, err := h.tasks.Get(r.Context(), tenantID, id)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, task)
}

// Create adds a task.
// POST /v1/tasks
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req validate.TaskInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	draft, err := validate.TaskCreate(req)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), tenantID, draft)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, task)
}

// Update applies a validated partial update.
// PATCH /v1/tasks/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := httputil.URLID(r, "id")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrTaskNotFound)
		return
	}

	var req validate.TaskInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	patch, err := validate.TaskUpdate(req)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), tenantID, id, patch)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, task)
}

// Delete removes a task.
// DELETE /v1/tasks/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := httputil.URLID(r, "id")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrTaskNotFound)
		return
	}

	if err := h.tasks.Delete(r.Context(), tenantID, id); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.Deleted(w)
}
