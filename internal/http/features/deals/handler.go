package deals

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/internal/httputil"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/pipeline"
	"github.com/tendant/nexus-crm/pkg/repository"
	"github.com/tendant/nexus-crm/pkg/validate"
)

// Handler handles deal and pipeline endpoints.
type Handler struct {
	logger *slog.Logger
	deals  repository.DealStore
	engine *pipeline.Engine
}

// NewHandler creates a new deals handler.
func NewHandler(logger *slog.Logger, deals repository.DealStore, engine *pipeline.Engine) *Handler {
	return &Handler{logger: logger, deals: deals, engine: engine}
}

// StageRequest sets a deal's stage.
type StageRequest struct {
	Stage string `json:"stage"`
}

// MoveRequest is a drag gesture. OverID is a stage name or another deal's id.
type MoveRequest struct {
	OverID string `json:"over_id"`
}

func (h *Handler) filter(w http.ResponseWriter, r *http.Request) (repository.DealFilter, bool) {
	q := r.URL.Query()
	filter := repository.DealFilter{
		Search:  strings.TrimSpace(q.Get("search")),
		OrderBy: httputil.OrderingFromQuery(r),
	}
	if raw := q.Get("stage"); raw != "" {
		stage, err := validate.Stage(raw)
		if err != nil {
			httputil.WriteError(w, h.logger, err)
			return filter, false
		}
		filter.Stage = &stage
	}
	if raw := q.Get("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, h.logger, domain.NewValidationError("client_id", "must be a valid id"))
			return filter, false
		}
		filter.ClientID = &id
	}
	return filter, true
}

// List returns the tenant's deals, most recently updated first.
// GET /v1/deals?stage=&client_id=&search=&order_by=&order=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}

	deals, err := h.deals.List(r.Context(), tenantID, filter)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, deals)
}

// Board returns the tenant's deals grouped into one column per stage.
// GET /v1/deals/board
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	deals, err := h.deals.List(r.Context(), tenantID, repository.DealFilter{})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, pipeline.Group(deals))
}

// Get returns one deal.
// GET /v1/deals/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := httputil.URLID(r, "id")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrDealNotFound)
		return
	}

	deal, err := h.deals.Get(r.Context(), tenantID, id)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, deal)
}

// Create adds a deal. The currency defaults to the caller's profile currency.
// POST /v1/deals
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req validate.DealInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	draft, err := validate.DealCreate(req, principal.Currency)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	deal, err := h.deals.Create(r.Context(), principal.UserID, draft)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, deal)
}

// Update applies a validated partial update.
// PATCH /v1/deals/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := httputil.URLID(r, "id")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrDealNotFound)
		return
	}

	var req validate.DealInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	patch, err := validate.DealUpdate(req)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	deal, err := h.engine.Update(r.Context(), tenantID, id, patch)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, deal)
}

// SetStage moves a deal to a stage.
// PUT /v1/deals/{id}/stage
func (h *Handler) SetStage(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := httputil.URLID(r, "id")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrDealNotFound)
		return
	}

	var req StageRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	stage, err := validate.Stage(req.Stage)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	deal, err := h.engine.SetStage(r.Context(), tenantID, id, stage)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, deal)
}

// Move resolves a drop target and moves the deal there.
// POST /v1/deals/{id}/move
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := httputil.URLID(r, "id")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrDealNotFound)
		return
	}

	var req MoveRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.OverID) == "" {
		httputil.WriteError(w, h.logger, domain.NewValidationError("over_id", "is required"))
		return
	}

	deal, err := h.engine.Drop(r.Context(), tenantID, id, strings.TrimSpace(req.OverID))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, deal)
}

// Delete removes a deal.
// DELETE /v1/deals/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := httputil.URLID(r, "id")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrDealNotFound)
		return
	}

	if err := h.deals.Delete(r.Context(), tenantID, id); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.Deleted(w)
}
