package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/internal/httputil"
	"github.com/tendant/nexus-crm/pkg/auth"
	"github.com/tendant/nexus-crm/pkg/repository/memory"
	"github.com/tendant/nexus-crm/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

func setup(t *testing.T) (http.Handler, string) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	identity, err := auth.NewIdentityService(memory.NewStores().Users, auth.IdentityOptions{BcryptCost: bcrypt.MinCost}, logger)
	if err != nil {
		t.Fatalf("NewIdentityService: %v", err)
	}
	sessions := auth.NewSessionService(auth.SessionConfig{
		TTL:       time.Hour,
		JWTSecret: []byte("test-secret"),
		Issuer:    "nexus-crm-test",
	}, nil)

	if _, err := identity.Register(ctx, validate.SignupInput{Email: "ada@example.com", Password: "correct-horse", Name: "Ada"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	principal, err := identity.Authenticate(ctx, "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	token, err := sessions.Issue(principal)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	h := NewHandler(logger, identity, sessions, httputil.DefaultCookieConfig("nexus_session"))
	r := chi.NewRouter()
	r.Use(middleware.Auth(sessions, "nexus_session"))
	r.Patch("/v1/settings", h.Update)
	return r, token.Value
}

func patch(h http.Handler, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/v1/settings", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUpdate_RefreshesPrincipal(t *testing.T) {
	h, token := setup(t)

	rec := patch(h, `{"currency":"eur","timezone":"Europe/Berlin"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp UpdateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Principal.Currency != "EUR" || resp.Principal.Timezone != "Europe/Berlin" {
		t.Errorf("principal = %+v, want EUR Europe/Berlin", resp.Principal)
	}
	if resp.Principal.Name != "Ada" {
		t.Errorf("name = %q, want unchanged Ada", resp.Principal.Name)
	}
	if resp.User.Currency != "EUR" {
		t.Errorf("stored currency = %q, want EUR", resp.User.Currency)
	}
	if resp.Token == "" || resp.Token == token {
		t.Error("expected a fresh token")
	}

	// The replaced token is revoked.
	if rec := patch(h, `{"name":"Ada L"}`, token); rec.Code != http.StatusUnauthorized {
		t.Errorf("old token status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec := patch(h, `{"name":"Ada L"}`, resp.Token); rec.Code != http.StatusOK {
		t.Errorf("new token status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestUpdate_Validation(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		expectedField string
	}{
		{"bad timezone", `{"timezone":"Mars/Olympus"}`, "timezone"},
		{"bad currency", `{"currency":"DOLLARS"}`, "currency"},
		{"short name", `{"name":"A"}`, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, token := setup(t)
			rec := patch(h, tt.body, token)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Status code = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			var resp httputil.ErrorResponse
			json.NewDecoder(rec.Body).Decode(&resp)
			if len(resp.Fields) == 0 || resp.Fields[0].Field != tt.expectedField {
				t.Errorf("Fields = %+v, want %s", resp.Fields, tt.expectedField)
			}
		})
	}
}
