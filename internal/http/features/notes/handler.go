package notes

import (
	"log/slog"
	"net/http"

	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/internal/httputil"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository"
	"github.com/tendant/nexus-crm/pkg/validate"
)

// Handler handles the notes attached to a client.
type Handler struct {
	logger *slog.Logger
	notes  repository.NoteStore
}

// NewHandler creates a new notes handler.
func NewHandler(logger *slog.Logger, notes repository.NoteStore) *Handler {
	return &Handler{logger: logger, notes: notes}
}

// List returns a client's notes, newest first.
// GET /v1/clients/{id}/notes
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	clientID, ok := httputil.URLID(r, "id")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrClientNotFound)
		return
	}

	notes, err := h.notes.ListByClient(r.Context(), tenantID, clientID)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, notes)
}

// Create adds a note to a client.
// POST /v1/clients/{id}/notes
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	clientID, ok := httputil.URLID(r, "id")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrClientNotFound)
		return
	}

	var req validate.NoteInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	draft, err := validate.NoteCreate(clientID, req)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	note, err := h.notes.Create(r.Context(), tenantID, draft)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, note)
}

// Delete removes a note.
// DELETE /v1/clients/{id}/notes/{noteID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	noteID, ok := httputil.URLID(r, "noteID")
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrNoteNotFound)
		return
	}

	if err := h.notes.Delete(r.Context(), tenantID, noteID); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.Deleted(w)
}
