package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/internal/http/middleware"
	"github.com/tendant/nexus-crm/pkg/dashboard"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository/memory"
)

func TestSummary(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores := memory.NewStores()
	tenant := uuid.New()

	for _, stage := range domain.Stages {
		if _, err := stores.Deals.Create(ctx, tenant, &domain.Deal{Title: string(stage), Stage: stage, Value: 10}); err != nil {
			t.Fatalf("create deal: %v", err)
		}
	}
	if _, err := stores.Clients.Create(ctx, tenant, &domain.Client{Name: "Acme"}); err != nil {
		t.Fatalf("create client: %v", err)
	}
	if _, err := stores.Tasks.Create(ctx, tenant, &domain.Task{Title: "Call", Status: domain.TaskStatusOpen, Priority: domain.PriorityHigh}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	h := NewHandler(logger, dashboard.NewAggregator(stores))

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), &domain.Principal{UserID: tenant}))
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}
	var summary dashboard.Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.ActiveDeals != 3 {
		t.Errorf("ActiveDeals = %d, want 3", summary.ActiveDeals)
	}
	if summary.ClientCount != 1 || summary.OpenTasks != 1 || len(summary.RecentClients) != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestSummary_Unauthenticated(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), dashboard.NewAggregator(memory.NewStores()))

	rec := httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
