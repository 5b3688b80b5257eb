package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

// UserStore implements repository.UserStore.
type UserStore struct {
	db *DB
}

// Create stores a new user, rejecting emails already registered in any case.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := s.db.usersByEmail[key]; exists {
		return domain.ErrDuplicateEmail
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.db.stamp()
		user.UpdatedAt = user.CreatedAt
	}

	clone := *user
	s.db.users[clone.ID] = &clone
	s.db.usersByEmail[key] = clone.ID
	return nil
}

// GetByID retrieves a user by id.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	id, ok := s.db.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *s.db.users[id]
	return &clone, nil
}

// UpdateProfile applies the non-nil fields of patch.
func (s *UserStore) UpdateProfile(ctx context.Context, id uuid.UUID, patch domain.ProfilePatch) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.IsEmpty() {
		clone := *u
		return &clone, nil
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Currency != nil {
		u.Currency = *patch.Currency
	}
	if patch.Timezone != nil {
		u.Timezone = *patch.Timezone
	}
	u.UpdatedAt = s.db.stamp()

	clone := *u
	return &clone, nil
}
