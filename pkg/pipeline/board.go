package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

// Column is one stage of the board.
type Column struct {
	Stage domain.Stage   `json:"stage"`
	Deals []*domain.Deal `json:"deals"`
	Count int            `json:"count"`
	Value float64        `json:"value"`
}

// Group buckets deals into one column per stage, in board order. Deals keep
// their relative order within a column.
func Group(deals []*domain.Deal) []Column {
	columns := make([]Column, len(domain.Stages))
	index := make(map[domain.Stage]int, len(domain.Stages))
	for i, s := range domain.Stages {
		columns[i] = Column{Stage: s, Deals: []*domain.Deal{}}
		index[s] = i
	}
	for _, d := range deals {
		i, ok := index[d.Stage]
		if !ok {
			continue
		}
		columns[i].Deals = append(columns[i].Deals, d)
		columns[i].Count++
		columns[i].Value += d.Value
	}
	return columns
}

// Board is a caller-side view of a tenant's pipeline. Drops are applied to
// the view immediately and persisted afterwards; a failed persist restores
// the deal to its last confirmed state. Board is safe for concurrent use.
type Board struct {
	tenantID uuid.UUID
	mover    StageMover

	mu        sync.Mutex
	order     []uuid.UUID
	view      map[uuid.UUID]*domain.Deal
	confirmed map[uuid.UUID]domain.Deal
}

// NewBoard creates a board over deals as loaded from the store.
func NewBoard(tenantID uuid.UUID, mover StageMover, deals []*domain.Deal) *Board {
	b := &Board{
		tenantID:  tenantID,
		mover:     mover,
		view:      make(map[uuid.UUID]*domain.Deal, len(deals)),
		confirmed: make(map[uuid.UUID]domain.Deal, len(deals)),
	}
	for _, d := range deals {
		clone := *d
		b.order = append(b.order, d.ID)
		b.view[d.ID] = &clone
		b.confirmed[d.ID] = clone
	}
	return b
}

// Columns returns a copy of the current view grouped by stage.
func (b *Board) Columns() []Column {
	b.mu.Lock()
	defer b.mu.Unlock()

	deals := make([]*domain.Deal, 0, len(b.order))
	for _, id := range b.order {
		clone := *b.view[id]
		deals = append(deals, &clone)
	}
	return Group(deals)
}

// Stage returns the stage a deal currently shows in the view.
func (b *Board) Stage(dealID uuid.UUID) (domain.Stage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	d, ok := b.view[dealID]
	if !ok {
		return "", false
	}
	return d.Stage, true
}

// Drop moves activeID to the stage named by overID, a column or another
// deal on the board. The move is visible before the mover is called.
func (b *Board) Drop(ctx context.Context, activeID uuid.UUID, overID string) error {
	b.mu.Lock()
	active, ok := b.view[activeID]
	if !ok {
		b.mu.Unlock()
		return domain.ErrDealNotFound
	}
	target, ok := b.resolve(overID)
	if !ok {
		b.mu.Unlock()
		return domain.ErrDealNotFound
	}
	if active.Stage == target {
		b.mu.Unlock()
		return nil
	}
	active.Stage = target
	b.mu.Unlock()

	saved, err := b.mover.SetStage(ctx, b.tenantID, activeID, target)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		good := b.confirmed[activeID]
		b.view[activeID] = &good
		return err
	}
	clone := *saved
	b.view[activeID] = &clone
	b.confirmed[activeID] = clone
	return nil
}

// resolve maps a drop target to a stage. Caller holds the lock.
func (b *Board) resolve(overID string) (domain.Stage, bool) {
	if s := domain.Stage(overID); s.Valid() {
		return s, true
	}
	id, err := uuid.Parse(overID)
	if err != nil {
		return "", false
	}
	over, ok := b.view[id]
	if !ok {
		return "", false
	}
	return over.Stage, true
}
