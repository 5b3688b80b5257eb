package clients

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/internal/httputil"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository/memory"
)

type server struct {
	t      *testing.T
	router http.Handler
}

func newServer(t *testing.T) *server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, memory.NewStores().Clients)

	r := chi.NewRouter()
	r.Get("/v1/clients", h.List)
	r.Post("/v1/clients", h.Create)
	r.Get("/v1/clients/{id}", h.Get)
	r.Patch("/v1/clients/{id}", h.Update)
	r.Delete("/v1/clients/{id}", h.Delete)
	return &server{t: t, router: r}
}

func (s *server) do(tenantID uuid.UUID, method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), &domain.Principal{UserID: tenantID}))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *server) create(tenantID uuid.UUID, body string) *domain.Client {
	s.t.Helper()
	rec := s.do(tenantID, http.MethodPost, "/v1/clients", body)
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var c domain.Client
	if err := json.NewDecoder(rec.Body).Decode(&c); err != nil {
		s.t.Fatalf("decode: %v", err)
	}
	return &c
}

func TestCreate_Validation(t *testing.T) {
	s := newServer(t)
	tenant := uuid.New()

	tests := []struct {
		name          string
		body          string
		expectedField string
	}{
		{"empty name", `{"name":""}`, "name"},
		{"missing name", `{"company":"Acme"}`, "name"},
		{"bad website", `{"name":"X","website":"not-a-url"}`, "website"},
		{"bad email", `{"name":"X","email":"nope"}`, "email"},
		{"bad status", `{"name":"X","status":"vip"}`, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tenant, http.MethodPost, "/v1/clients", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Status code = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			var resp httputil.ErrorResponse
			json.NewDecoder(rec.Body).Decode(&resp)
			found := false
			for _, f := range resp.Fields {
				if f.Field == tt.expectedField {
					found = true
				}
			}
			if !found {
				t.Errorf("Fields = %+v, want %s", resp.Fields, tt.expectedField)
			}
		})
	}
}

func TestCreate_EmptyOptionalFields(t *testing.T) {
	s := newServer(t)
	tenant := uuid.New()

	c := s.create(tenant, `{"name":"X","website":"","email":""}`)
	if c.Status != domain.ClientStatusLead {
		t.Errorf("Status = %q, want lead", c.Status)
	}
	if c.UserID != tenant {
		t.Errorf("UserID = %v, want %v", c.UserID, tenant)
	}
}

func TestCreate_IgnoresCallerTenant(t *testing.T) {
	s := newServer(t)
	tenant := uuid.New()

	// user_id is not an input field.
	rec := s.do(tenant, http.MethodPost, "/v1/clients", `{"name":"X","user_id":"`+uuid.NewString()+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestList(t *testing.T) {
	s := newServer(t)
	tenant := uuid.New()
	s.create(tenant, `{"name":"Acme Corp","status":"active"}`)
	s.create(tenant, `{"name":"Globex","company":"ACME holdings"}`)
	s.create(tenant, `{"name":"Initech"}`)
	s.create(uuid.New(), `{"name":"Acme Elsewhere"}`)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedCount  int
	}{
		{"all", "", http.StatusOK, 3},
		{"search is case-insensitive", "?search=acme", http.StatusOK, 2},
		{"status", "?status=active", http.StatusOK, 1},
		{"bad status", "?status=vip", http.StatusBadRequest, 0},
		{"order by name", "?order_by=name", http.StatusOK, 3},
		{"bad order field", "?order_by=password", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tenant, http.MethodGet, "/v1/clients"+tt.query, "")
			if rec.Code != tt.expectedStatus {
				t.Fatalf("Status code = %d, want %d", rec.Code, tt.expectedStatus)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var list []*domain.Client
			json.NewDecoder(rec.Body).Decode(&list)
			if len(list) != tt.expectedCount {
				t.Errorf("len = %d, want %d", len(list), tt.expectedCount)
			}
		})
	}

	rec := s.do(tenant, http.MethodGet, "/v1/clients?order_by=name", "")
	var list []*domain.Client
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list) == 3 && (list[0].Name != "Acme Corp" || list[2].Name != "Initech") {
		t.Errorf("order = %s, %s, %s", list[0].Name, list[1].Name, list[2].Name)
	}
}

func TestList_EmptyIsArray(t *testing.T) {
	s := newServer(t)

	rec := s.do(uuid.New(), http.MethodGet, "/v1/clients", "")
	if got := bytes.TrimSpace(rec.Body.Bytes()); string(got) != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestGetUpdateDelete(t *testing.T) {
	s := newServer(t)
	tenant, other := uuid.New(), uuid.New()
	c := s.create(tenant, `{"name":"Acme","website":"https://acme.example"}`)
	path := "/v1/clients/" + c.ID.String()

	rec := s.do(tenant, http.MethodGet, path, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var detail domain.ClientDetail
	json.NewDecoder(rec.Body).Decode(&detail)
	if detail.Name != "Acme" || detail.Deals == nil || detail.Tasks == nil || detail.Notes == nil {
		t.Errorf("unexpected detail: %+v", detail)
	}

	// Another tenant sees nothing.
	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		body := ""
		if method == http.MethodPatch {
			body = `{"name":"Hijacked"}`
		}
		if rec := s.do(other, method, path, body); rec.Code != http.StatusNotFound {
			t.Errorf("%s by other tenant = %d, want %d", method, rec.Code, http.StatusNotFound)
		}
	}

	rec = s.do(tenant, http.MethodPatch, path, `{"status":"active","website":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body.String())
	}
	var updated domain.Client
	json.NewDecoder(rec.Body).Decode(&updated)
	if updated.Name != "Acme" || updated.Status != domain.ClientStatusActive || updated.Website != "" {
		t.Errorf("unexpected update: %+v", updated)
	}

	if rec := s.do(tenant, http.MethodPatch, path, `{"website":"not-a-url"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad patch status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	if rec := s.do(tenant, http.MethodDelete, path, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := s.do(tenant, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGet_MalformedID(t *testing.T) {
	s := newServer(t)

	rec := s.do(uuid.New(), http.MethodGet, "/v1/clients/not-a-uuid", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
