package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

// NoteStore implements repository.NoteStore.
type NoteStore struct {
	db *DB
}

// Create attaches a note to one of the tenant's clients.
func (s *NoteStore) Create(ctx context.Context, tenantID uuid.UUID, draft *domain.Note) (*domain.Note, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if s.db.ownedClient(tenantID, draft.ClientID) == nil {
		return nil, domain.ErrClientNotFound
	}

	n := *draft
	n.ID = uuid.New()
	n.UserID = tenantID
	n.CreatedAt = s.db.stamp()

	stored := n
	s.db.notes[n.ID] = &stored
	return &n, nil
}

// ListByClient returns the client's notes, newest first.
func (s *NoteStore) ListByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]*domain.Note, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.db.listNotes(tenantID, clientID), nil
}

// Delete removes the tenant's note.
func (s *NoteStore) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	n, ok := s.db.notes[id]
	if !ok || n.UserID != tenantID {
		return domain.ErrNoteNotFound
	}
	delete(s.db.notes, id)
	return nil
}

func (db *DB) listNotes(tenantID, clientID uuid.UUID) []*domain.Note {
	notes := []*domain.Note{}
	for _, n := range db.notes {
		if n.UserID == tenantID && n.ClientID == clientID {
			clone := *n
			notes = append(notes, &clone)
		}
	}
	slices.SortFunc(notes, func(a, b *domain.Note) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return notes
}
