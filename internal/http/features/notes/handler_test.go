package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository/memory"
)

func TestNotes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores := memory.NewStores()
	h := NewHandler(logger, stores.Notes)

	r := chi.NewRouter()
	r.Get("/v1/clients/{id}/notes", h.List)
	r.Post("/v1/clients/{id}/notes", h.Create)
	r.Delete("/v1/clients/{id}/notes/{noteID}", h.Delete)

	tenant, other := uuid.New(), uuid.New()
	client, err := stores.Clients.Create(context.Background(), tenant, &domain.Client{Name: "Acme"})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	base := "/v1/clients/" + client.ID.String() + "/notes"

	do := func(tenantID uuid.UUID, method, path, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = bytes.NewBufferString(body)
		}
		req := httptest.NewRequest(method, path, reader)
		req = req.WithContext(middleware.WithPrincipal(req.Context(), &domain.Principal{UserID: tenantID}))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	tests := []struct {
		name           string
		tenant         uuid.UUID
		path           string
		body           string
		expectedStatus int
	}{
		{"empty content", tenant, base, `{"content":"   "}`, http.StatusBadRequest},
		{"other tenant's client", other, base, `{"content":"hello"}`, http.StatusNotFound},
		{"malformed client id", tenant, "/v1/clients/nope/notes", `{"content":"hello"}`, http.StatusNotFound},
		{"success", tenant, base, `{"content":"Called about renewal"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(tt.tenant, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.expectedStatus {
				t.Errorf("Status code = %d, want %d: %s", rec.Code, tt.expectedStatus, rec.Body.String())
			}
		})
	}

	rec := do(tenant, http.MethodGet, base, "")
	var notes []*domain.Note
	json.NewDecoder(rec.Body).Decode(&notes)
	if len(notes) != 1 || notes[0].Content != "Called about renewal" {
		t.Fatalf("notes = %+v", notes)
	}
	notePath := base + "/" + notes[0].ID.String()

	if rec := do(other, http.MethodDelete, notePath, ""); rec.Code != http.StatusNotFound {
		t.Errorf("delete by other tenant = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := do(tenant, http.MethodDelete, notePath, ""); rec.Code != http.StatusOK {
		t.Errorf("delete = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec := do(tenant, http.MethodDelete, notePath, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
