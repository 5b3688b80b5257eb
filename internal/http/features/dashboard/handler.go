package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/internal/httputil"
	"github.com/tendant/nexus-crm/pkg/dashboard"
)

// Handler serves the dashboard summary.
type Handler struct {
	logger     *slog.Logger
	aggregator *dashboard.Aggregator
}

// NewHandler creates a new dashboard handler.
func NewHandler(logger *slog.Logger, aggregator *dashboard.Aggregator) *Handler {
	return &Handler{logger: logger, aggregator: aggregator}
}

// Summary returns counts, recent clients and open pipeline value.
// GET /v1/dashboard
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	summary, err := h.aggregator.Summary(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}
