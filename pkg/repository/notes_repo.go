package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

// NotesRepository handles note persistence.
type NotesRepository struct {
	db *sql.DB
}

// NewNotesRepository creates a new notes repository.
func NewNotesRepository(db *sql.DB) *NotesRepository {
	return &NotesRepository{db: db}
}

// Create attaches a note to one of the tenant's clients. The ownership check
// and the insert are a single statement.
func (r *NotesRepository) Create(ctx context.Context, tenantID uuid.UUID, draft *domain.Note) (*domain.Note, error) {
	n := *draft
	n.ID = uuid.New()
	n.UserID = tenantID
	n.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO notes (id, user_id, client_id, content, created_at)
		SELECT $1, $2, c.id, $4, $5
		FROM clients c
		WHERE c.id = $3 AND c.user_id = $2
		RETURNING id, user_id, client_id, content, created_at
	`
	created := &domain.Note{}
	err := r.db.QueryRowContext(ctx, query, n.ID, n.UserID, n.ClientID, n.Content, n.CreatedAt).
		Scan(&created.ID, &created.UserID, &created.ClientID, &created.Content, &created.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return created, nil
}

// ListByClient returns the client's notes, newest first.
func (r *NotesRepository) ListByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]*domain.Note, error) {
	return listNotes(ctx, r.db, tenantID, clientID)
}

// Delete removes the tenant's note.
func (r *NotesRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, tenantID)
	if err != nil {
		return mapPostgresError(err)
	}
	return affected(result, domain.ErrNoteNotFound)
}

func listNotes(ctx context.Context, q Querier, tenantID, clientID uuid.UUID) ([]*domain.Note, error) {
	query := `
		SELECT id, user_id, client_id, content, created_at
		FROM notes
		WHERE client_id = $1 AND user_id = $2
		ORDER BY created_at DESC, id ASC
	`
	rows, err := q.QueryContext(ctx, query, clientID, tenantID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	notes := []*domain.Note{}
	for rows.Next() {
		n := &domain.Note{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.ClientID, &n.Content, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
