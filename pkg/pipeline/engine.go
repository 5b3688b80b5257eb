// Package pipeline moves deals between stages. Transitions are free: any
// stage may follow any other, and concurrent moves of the same deal resolve
// as last writer wins.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository"
)

// Observer is told about every persisted stage change.
type Observer interface {
	StageChanged(from, to domain.Stage)
}

// StageMover persists a stage change. *Engine implements it.
type StageMover interface {
	SetStage(ctx context.Context, tenantID, dealID uuid.UUID, stage domain.Stage) (*domain.Deal, error)
}

// Engine applies stage transitions through the deal store.
type Engine struct {
	deals    repository.DealStore
	observer Observer
	logger   *slog.Logger
}

// NewEngine creates a pipeline engine. observer may be nil.
func NewEngine(deals repository.DealStore, observer Observer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{deals: deals, observer: observer, logger: logger}
}

// SetStage moves the tenant's deal to stage. When the deal is already there
// nothing is written and the stored deal is returned unchanged.
func (e *Engine) SetStage(ctx context.Context, tenantID, dealID uuid.UUID, stage domain.Stage) (*domain.Deal, error) {
	if !stage.Valid() {
		return nil, domain.ErrInvalidStage
	}

	current, err := e.deals.Get(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}
	if current.Stage == stage {
		return current, nil
	}

	updated, err := e.deals.Update(ctx, tenantID, dealID, domain.DealPatch{Stage: &stage})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("deal stage changed",
		"tenant_id", tenantID,
		"deal_id", dealID,
		"from", current.Stage,
		"to", stage,
	)
	if e.observer != nil {
		e.observer.StageChanged(current.Stage, stage)
	}
	return updated, nil
}

// Update applies a validated partial update. A stage change made this way is
// reported like one made through SetStage.
func (e *Engine) Update(ctx context.Context, tenantID, dealID uuid.UUID, patch domain.DealPatch) (*domain.Deal, error) {
	if patch.Stage == nil {
		return e.deals.Update(ctx, tenantID, dealID, patch)
	}
	if !patch.Stage.Valid() {
		return nil, domain.ErrInvalidStage
	}

	current, err := e.deals.Get(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}
	updated, err := e.deals.Update(ctx, tenantID, dealID, patch)
	if err != nil {
		return nil, err
	}
	if current.Stage != updated.Stage && e.observer != nil {
		e.observer.StageChanged(current.Stage, updated.Stage)
	}
	return updated, nil
}

// ResolveTarget returns the stage a deal dropped on overID should take. overID
// is either a stage column name or the id of another deal in the same tenant,
// whose current stage is inherited.
func (e *Engine) ResolveTarget(ctx context.Context, tenantID uuid.UUID, overID string) (domain.Stage, error) {
	if s := domain.Stage(overID); s.Valid() {
		return s, nil
	}
	id, err := uuid.Parse(overID)
	if err != nil {
		return "", domain.ErrDealNotFound
	}
	over, err := e.deals.Get(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	return over.Stage, nil
}

// Drop handles a drag gesture: activeID was released over overID.
func (e *Engine) Drop(ctx context.Context, tenantID, activeID uuid.UUID, overID string) (*domain.Deal, error) {
	stage, err := e.ResolveTarget(ctx, tenantID, overID)
	if err != nil {
		return nil, err
	}
	return e.SetStage(ctx, tenantID, activeID, stage)
}
