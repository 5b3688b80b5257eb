package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

// UserStore persists accounts. Users are the tenancy root, so lookups here are
// not tenant-scoped.
type UserStore interface {
	// Create stores a new user. Returns domain.ErrDuplicateEmail if the email
	// (compared case-insensitively) is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID returns domain.ErrUserNotFound if the user doesn't exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdateProfile applies the non-nil patch fields and bumps updated_at.
	UpdateProfile(ctx context.Context, id uuid.UUID, patch domain.ProfilePatch) (*domain.User, error)
}

// ClientStore is the tenant-scoped gateway to clients. Every method filters
// by tenantID in the same statement that touches the row.
type ClientStore interface {
	// Create stamps tenantID as the owner, ignoring draft.UserID.
	Create(ctx context.Context, tenantID uuid.UUID, draft *domain.Client) (*domain.Client, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Client, error)
	// GetDetail returns the client with its deals, tasks and notes.
	GetDetail(ctx context.Context, tenantID, id uuid.UUID) (*domain.ClientDetail, error)
	List(ctx context.Context, tenantID uuid.UUID, filter ClientFilter) ([]*domain.Client, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter ClientFilter) (int, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.ClientPatch) (*domain.Client, error)
	// Delete detaches the client's deals and tasks and deletes its notes.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// DealStore is the tenant-scoped gateway to deals.
type DealStore interface {
	// Create returns domain.ErrClientNotFound if draft.ClientID is set but
	// not owned by tenantID.
	Create(ctx context.Context, tenantID uuid.UUID, draft *domain.Deal) (*domain.Deal, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Deal, error)
	List(ctx context.Context, tenantID uuid.UUID, filter DealFilter) ([]*domain.Deal, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter DealFilter) (int, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.DealPatch) (*domain.Deal, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// TaskStore is the tenant-scoped gateway to tasks.
type TaskStore interface {
	Create(ctx context.Context, tenantID uuid.UUID, draft *domain.Task) (*domain.Task, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, tenantID uuid.UUID, filter TaskFilter) ([]*domain.Task, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter TaskFilter) (int, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// NoteStore is the tenant-scoped gateway to notes.
type NoteStore interface {
	// Create returns domain.ErrClientNotFound unless draft.ClientID belongs
	// to tenantID.
	Create(ctx context.Context, tenantID uuid.UUID, draft *domain.Note) (*domain.Note, error)
	ListByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]*domain.Note, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// Stores bundles one implementation of every store.
type Stores struct {
	Users   UserStore
	Clients ClientStore
	Deals   DealStore
	Tasks   TaskStore
	Notes   NoteStore
}
