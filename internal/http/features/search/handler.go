package search

import (
	"log/slog"
	"net/http"

	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/internal/httputil"
	"github.com/tendant/nexus-crm/pkg/search"
)

// Handler handles global search.
type Handler struct {
	logger     *slog.Logger
	aggregator *search.Aggregator
}

// NewHandler creates a new search handler.
func NewHandler(logger *slog.Logger, aggregator *search.Aggregator) *Handler {
	return &Handler{logger: logger, aggregator: aggregator}
}

// Search returns up to five clients, deals and tasks matching q.
// GET /v1/search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	results, err := h.aggregator.Search(r.Context(), tenantID, r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, results)
}
