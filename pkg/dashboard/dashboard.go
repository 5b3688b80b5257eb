// Package dashboard summarises a tenant's book of business.
package dashboard

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/pipeline"
	"github.com/tendant/nexus-crm/pkg/repository"
	"golang.org/x/sync/errgroup"
)

// RecentClientsLimit is the number of recently updated clients shown.
const RecentClientsLimit = 5

// StageTotal is the open pipeline for one stage.
type StageTotal struct {
	Stage domain.Stage `json:"stage"`
	Count int          `json:"count"`
	Value float64      `json:"value"`
}

// Summary is the dashboard payload.
type Summary struct {
	ClientCount   int              `json:"client_count"`
	ActiveDeals   int              `json:"active_deals"`
	OpenTasks     int              `json:"open_tasks"`
	RecentClients []*domain.Client `json:"recent_clients"`
	Pipeline      []StageTotal     `json:"pipeline"`
}

// Aggregator computes summaries from the stores.
type Aggregator struct {
	stores repository.Stores
}

// NewAggregator creates a dashboard aggregator.
func NewAggregator(stores repository.Stores) *Aggregator {
	return &Aggregator{stores: stores}
}

// Summary counts clients, deals not yet won or lost and open tasks, and
// lists the most recently updated clients.
func (a *Aggregator) Summary(ctx context.Context, tenantID uuid.UUID) (*Summary, error) {
	s := &Summary{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := a.stores.Clients.Count(ctx, tenantID, repository.ClientFilter{})
		s.ClientCount = n
		return err
	})
	g.Go(func() error {
		open := domain.TaskStatusOpen
		n, err := a.stores.Tasks.Count(ctx, tenantID, repository.TaskFilter{Status: &open})
		s.OpenTasks = n
		return err
	})
	g.Go(func() error {
		clients, err := a.stores.Clients.List(ctx, tenantID, repository.ClientFilter{
			Limit:   RecentClientsLimit,
			OrderBy: repository.ClientsByRecent,
		})
		s.RecentClients = clients
		return err
	})
	g.Go(func() error {
		deals, err := a.stores.Deals.List(ctx, tenantID, repository.ActiveDeals())
		if err != nil {
			return err
		}
		s.ActiveDeals = len(deals)
		for _, col := range pipeline.Group(deals) {
			if col.Stage.Terminal() {
				continue
			}
			s.Pipeline = append(s.Pipeline, StageTotal{Stage: col.Stage, Count: col.Count, Value: col.Value})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}
