package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository"
	"github.com/tendant/nexus-crm/pkg/repository/memory"
)

// countingDeals counts writes that reach the store.
type countingDeals struct {
	repository.DealStore
	mu      sync.Mutex
	updates int
}

func (c *countingDeals) Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.DealPatch) (*domain.Deal, error) {
	c.mu.Lock()
	c.updates++
	c.mu.Unlock()
	return c.DealStore.Update(ctx, tenantID, id, patch)
}

type recordingObserver struct {
	moves [][2]domain.Stage
}

func (r *recordingObserver) StageChanged(from, to domain.Stage) {
	r.moves = append(r.moves, [2]domain.Stage{from, to})
}

type fixture struct {
	engine   *Engine
	deals    *countingDeals
	observer *recordingObserver
	tenant   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.NewStores()
	deals := &countingDeals{DealStore: st.Deals}
	obs := &recordingObserver{}
	return &fixture{
		engine:   NewEngine(deals, obs, nil),
		deals:    deals,
		observer: obs,
		tenant:   uuid.New(),
	}
}

func (f *fixture) deal(t *testing.T, title string, stage domain.Stage) *domain.Deal {
	t.Helper()
	d, err := f.deals.DealStore.Create(context.Background(), f.tenant, &domain.Deal{Title: title, Stage: stage, Value: 100})
	require.NoError(t, err)
	return d
}

func TestEngine_SetStage(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the deal", func(t *testing.T) {
		f := newFixture(t)
		d := f.deal(t, "Renewal", domain.StageProspect)

		updated, err := f.engine.SetStage(ctx, f.tenant, d.ID, domain.StageWon)
		require.NoError(t, err)
		require.Equal(t, domain.StageWon, updated.Stage)
		require.Equal(t, 1, f.deals.updates)
		require.Equal(t, [][2]domain.Stage{{domain.StageProspect, domain.StageWon}}, f.observer.moves)
	})

	t.Run("backward moves are allowed", func(t *testing.T) {
		f := newFixture(t)
		d := f.deal(t, "Reopened", domain.StageLost)

		updated, err := f.engine.SetStage(ctx, f.tenant, d.ID, domain.StageNegotiation)
		require.NoError(t, err)
		require.Equal(t, domain.StageNegotiation, updated.Stage)
	})

	t.Run("same stage is not written", func(t *testing.T) {
		f := newFixture(t)
		d := f.deal(t, "Idle", domain.StageProposal)

		got, err := f.engine.SetStage(ctx, f.tenant, d.ID, domain.StageProposal)
		require.NoError(t, err)
		require.Equal(t, d.UpdatedAt, got.UpdatedAt)
		require.Zero(t, f.deals.updates)
		require.Empty(t, f.observer.moves)
	})

	t.Run("invalid stage", func(t *testing.T) {
		f := newFixture(t)
		d := f.deal(t, "Deal", domain.StageProspect)

		_, err := f.engine.SetStage(ctx, f.tenant, d.ID, domain.Stage("closed"))
		require.ErrorIs(t, err, domain.ErrInvalidStage)
		require.Zero(t, f.deals.updates)
	})

	t.Run("other tenant's deal is not found", func(t *testing.T) {
		f := newFixture(t)
		d := f.deal(t, "Deal", domain.StageProspect)

		_, err := f.engine.SetStage(ctx, uuid.New(), d.ID, domain.StageWon)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEngine_Drop(t *testing.T) {
	ctx := context.Background()

	t.Run("onto a deal inherits its stage with one write", func(t *testing.T) {
		f := newFixture(t)
		active := f.deal(t, "Dragged", domain.StageProspect)
		over := f.deal(t, "Target", domain.StageProposal)

		moved, err := f.engine.Drop(ctx, f.tenant, active.ID, over.ID.String())
		require.NoError(t, err)
		require.Equal(t, domain.StageProposal, moved.Stage)
		require.Equal(t, 1, f.deals.updates)

		target, err := f.deals.Get(ctx, f.tenant, over.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StageProposal, target.Stage)
	})

	t.Run("onto a column", func(t *testing.T) {
		f := newFixture(t)
		active := f.deal(t, "Dragged", domain.StageProspect)

		moved, err := f.engine.Drop(ctx, f.tenant, active.ID, "negotiation")
		require.NoError(t, err)
		require.Equal(t, domain.StageNegotiation, moved.Stage)
	})

	t.Run("onto a deal in the same stage is a no-op", func(t *testing.T) {
		f := newFixture(t)
		active := f.deal(t, "A", domain.StageProposal)
		over := f.deal(t, "B", domain.StageProposal)

		_, err := f.engine.Drop(ctx, f.tenant, active.ID, over.ID.String())
		require.NoError(t, err)
		require.Zero(t, f.deals.updates)
	})

	t.Run("onto another tenant's deal", func(t *testing.T) {
		f := newFixture(t)
		active := f.deal(t, "Mine", domain.StageProspect)
		foreign, err := f.deals.DealStore.Create(ctx, uuid.New(), &domain.Deal{Title: "Theirs", Stage: domain.StageWon})
		require.NoError(t, err)

		_, err = f.engine.Drop(ctx, f.tenant, active.ID, foreign.ID.String())
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.Zero(t, f.deals.updates)
	})

	t.Run("onto garbage", func(t *testing.T) {
		f := newFixture(t)
		active := f.deal(t, "Mine", domain.StageProspect)

		_, err := f.engine.Drop(ctx, f.tenant, active.ID, "nowhere")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEngine_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("stage change is observed", func(t *testing.T) {
		f := newFixture(t)
		d := f.deal(t, "Renewal", domain.StageProspect)
		stage := domain.StageProposal
		title := "Renewal 2027"

		updated, err := f.engine.Update(ctx, f.tenant, d.ID, domain.DealPatch{Title: &title, Stage: &stage})
		require.NoError(t, err)
		require.Equal(t, title, updated.Title)
		require.Equal(t, domain.StageProposal, updated.Stage)
		require.Equal(t, 1, f.deals.updates)
		require.Equal(t, [][2]domain.Stage{{domain.StageProspect, domain.StageProposal}}, f.observer.moves)
	})

	t.Run("other fields only", func(t *testing.T) {
		f := newFixture(t)
		d := f.deal(t, "Renewal", domain.StageProspect)
		value := 2500.0

		updated, err := f.engine.Update(ctx, f.tenant, d.ID, domain.DealPatch{Value: &value})
		require.NoError(t, err)
		require.Equal(t, value, updated.Value)
		require.Empty(t, f.observer.moves)
	})

	t.Run("invalid stage", func(t *testing.T) {
		f := newFixture(t)
		d := f.deal(t, "Renewal", domain.StageProspect)
		stage := domain.Stage("closed")

		_, err := f.engine.Update(ctx, f.tenant, d.ID, domain.DealPatch{Stage: &stage})
		require.ErrorIs(t, err, domain.ErrInvalidStage)
		require.Zero(t, f.deals.updates)
	})
}

type failingMover struct {
	err   error
	calls int
}

func (m *failingMover) SetStage(ctx context.Context, tenantID, dealID uuid.UUID, stage domain.Stage) (*domain.Deal, error) {
	m.calls++
	return nil, m.err
}

func TestBoard_Drop(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and confirms", func(t *testing.T) {
		f := newFixture(t)
		active := f.deal(t, "Dragged", domain.StageProspect)
		over := f.deal(t, "Target", domain.StageProposal)

		b := NewBoard(f.tenant, f.engine, []*domain.Deal{active, over})
		require.NoError(t, b.Drop(ctx, active.ID, over.ID.String()))

		stage, ok := b.Stage(active.ID)
		require.True(t, ok)
		require.Equal(t, domain.StageProposal, stage)

		cols := b.Columns()
		require.Equal(t, domain.StageProposal, cols[1].Stage)
		require.Equal(t, 2, cols[1].Count)
		require.Equal(t, 200.0, cols[1].Value)
		require.Zero(t, cols[0].Count)
	})

	t.Run("reverts when the move fails", func(t *testing.T) {
		d := &domain.Deal{ID: uuid.New(), Title: "Dragged", Stage: domain.StageProspect}
		mover := &failingMover{err: errors.New("storage unavailable")}
		b := NewBoard(uuid.New(), mover, []*domain.Deal{d})

		err := b.Drop(ctx, d.ID, string(domain.StageWon))
		require.EqualError(t, err, "storage unavailable")
		require.Equal(t, 1, mover.calls)

		stage, _ := b.Stage(d.ID)
		require.Equal(t, domain.StageProspect, stage)
	})

	t.Run("same stage does not call the mover", func(t *testing.T) {
		d := &domain.Deal{ID: uuid.New(), Stage: domain.StageWon}
		mover := &failingMover{err: errors.New("unexpected")}
		b := NewBoard(uuid.New(), mover, []*domain.Deal{d})

		require.NoError(t, b.Drop(ctx, d.ID, "won"))
		require.Zero(t, mover.calls)
	})

	t.Run("unknown deal", func(t *testing.T) {
		b := NewBoard(uuid.New(), &failingMover{}, nil)
		require.ErrorIs(t, b.Drop(ctx, uuid.New(), "won"), domain.ErrNotFound)
	})

	t.Run("board does not alias caller deals", func(t *testing.T) {
		d := &domain.Deal{ID: uuid.New(), Stage: domain.StageProspect}
		b := NewBoard(uuid.New(), &failingMover{}, []*domain.Deal{d})
		d.Stage = domain.StageLost

		stage, _ := b.Stage(d.ID)
		require.Equal(t, domain.StageProspect, stage)
	})
}

func TestGroup(t *testing.T) {
	cols := Group([]*domain.Deal{
		{Stage: domain.StageWon, Value: 10},
		{Stage: domain.StageWon, Value: 5},
		{Stage: domain.StageProspect, Value: 1},
	})
	require.Len(t, cols, len(domain.Stages))
	require.Equal(t, domain.StageProspect, cols[0].Stage)
	require.Equal(t, 15.0, cols[3].Value)
	require.NotNil(t, cols[2].Deals)
	require.Empty(t, cols[2].Deals)
}
