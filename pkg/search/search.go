// Package search runs one query across clients, deals and tasks.
package search

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository"
	"golang.org/x/sync/errgroup"
)

const (
	// MinQueryLength is the shortest query, in characters, that is executed.
	MinQueryLength = 2
	// PerCategory caps the hits returned per entity type.
	PerCategory = 5
)

// Results holds the hits per category. Categories are never nil.
type Results struct {
	Clients []*domain.Client `json:"clients"`
	Deals   []*domain.Deal   `json:"deals"`
	Tasks   []*domain.Task   `json:"tasks"`
}

func empty() *Results {
	return &Results{
		Clients: []*domain.Client{},
		Deals:   []*domain.Deal{},
		Tasks:   []*domain.Task{},
	}
}

// Observer is told how long each executed search took.
type Observer interface {
	SearchCompleted(duration time.Duration, err error)
}

// Aggregator fans a query out to the stores.
type Aggregator struct {
	stores   repository.Stores
	observer Observer
}

// NewAggregator creates a search aggregator. observer may be nil.
func NewAggregator(stores repository.Stores, observer Observer) *Aggregator {
	return &Aggregator{stores: stores, observer: observer}
}

// Search matches query against client name, company and email, deal titles
// and task titles, case-insensitively. Queries shorter than MinQueryLength
// return empty results without touching the stores. If any category fails
// the whole search fails.
func (a *Aggregator) Search(ctx context.Context, tenantID uuid.UUID, query string) (*Results, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return empty(), nil
	}

	start := time.Now()
	res, err := a.search(ctx, tenantID, query)
	if a.observer != nil {
		a.observer.SearchCompleted(time.Since(start), err)
	}
	return res, err
}

func (a *Aggregator) search(ctx context.Context, tenantID uuid.UUID, query string) (*Results, error) {
	res := empty()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		clients, err := a.stores.Clients.List(ctx, tenantID, repository.ClientFilter{
			Search:  query,
			Limit:   PerCategory,
			OrderBy: repository.Ordering{Field: "name"},
		})
		if err != nil {
			return err
		}
		res.Clients = clients
		return nil
	})
	g.Go(func() error {
		deals, err := a.stores.Deals.List(ctx, tenantID, repository.DealFilter{
			Search: query,
			Limit:  PerCategory,
		})
		if err != nil {
			return err
		}
		res.Deals = deals
		return nil
	})
	g.Go(func() error {
		tasks, err := a.stores.Tasks.List(ctx, tenantID, repository.TaskFilter{
			Search: query,
			Limit:  PerCategory,
		})
		if err != nil {
			return err
		}
		res.Tasks = tasks
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
