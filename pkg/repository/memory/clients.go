package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository"
)

// ClientStore implements repository.ClientStore.
type ClientStore struct {
	db *DB
}

// Create stores a client owned by tenantID.
func (s *ClientStore) Create(ctx context.Context, tenantID uuid.UUID, draft *domain.Client) (*domain.Client, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	now := s.db.stamp()
	c := *draft
	c.ID = uuid.New()
	c.UserID = tenantID
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = domain.ClientStatusLead
	}

	stored := c
	s.db.clients[c.ID] = &stored
	return &c, nil
}

// Get retrieves the tenant's client.
func (s *ClientStore) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Client, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	c := s.db.ownedClient(tenantID, id)
	if c == nil {
		return nil, domain.ErrClientNotFound
	}
	clone := *c
	return &clone, nil
}

// GetDetail retrieves the tenant's client with its deals, tasks and notes.
func (s *ClientStore) GetDetail(ctx context.Context, tenantID, id uuid.UUID) (*domain.ClientDetail, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	c := s.db.ownedClient(tenantID, id)
	if c == nil {
		return nil, domain.ErrClientNotFound
	}
	deals, err := s.db.listDeals(tenantID, repository.DealFilter{ClientID: &id})
	if err != nil {
		return nil, err
	}
	tasks, err := s.db.listTasks(tenantID, repository.TaskFilter{ClientID: &id})
	if err != nil {
		return nil, err
	}
	return &domain.ClientDetail{
		Client: *c,
		Deals:  deals,
		Tasks:  tasks,
		Notes:  s.db.listNotes(tenantID, id),
	}, nil
}

// List returns the tenant's clients matching filter.
func (s *ClientStore) List(ctx context.Context, tenantID uuid.UUID, filter repository.ClientFilter) ([]*domain.Client, error) {
	order, err := filter.OrderBy.Resolve(repository.ClientsByRecent, repository.ClientOrderFields)
	if err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	clients := []*domain.Client{}
	for _, c := range s.db.clients {
		if matchClient(c, tenantID, filter) {
			clone := *c
			clients = append(clients, &clone)
		}
	}
	slices.SortFunc(clients, func(a, b *domain.Client) int {
		if c := compareValues(clientField(a, order.Field), clientField(b, order.Field), order.Desc); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return limit(clients, filter.Limit), nil
}

// Count returns the number of the tenant's clients matching filter.
func (s *ClientStore) Count(ctx context.Context, tenantID uuid.UUID, filter repository.ClientFilter) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	n := 0
	for _, c := range s.db.clients {
		if matchClient(c, tenantID, filter) {
			n++
		}
	}
	return n, nil
}

// Update applies patch to the tenant's client.
func (s *ClientStore) Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.ClientPatch) (*domain.Client, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	c := s.db.ownedClient(tenantID, id)
	if c == nil {
		return nil, domain.ErrClientNotFound
	}
	if !patch.IsEmpty() {
		patch.Apply(c)
		c.UpdatedAt = s.db.stamp()
	}
	clone := *c
	return &clone, nil
}

// Delete removes the tenant's client. Its deals and tasks are detached and
// its notes are deleted.
func (s *ClientStore) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if s.db.ownedClient(tenantID, id) == nil {
		return domain.ErrClientNotFound
	}
	for _, d := range s.db.deals {
		if d.ClientID != nil && *d.ClientID == id {
			d.ClientID = nil
		}
	}
	for _, t := range s.db.tasks {
		if t.ClientID != nil && *t.ClientID == id {
			t.ClientID = nil
		}
	}
	for nid, n := range s.db.notes {
		if n.ClientID == id {
			delete(s.db.notes, nid)
		}
	}
	delete(s.db.clients, id)
	return nil
}

func matchClient(c *domain.Client, tenantID uuid.UUID, f repository.ClientFilter) bool {
	if c.UserID != tenantID {
		return false
	}
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	return repository.MatchesText(f.Search, c.Name, c.Company, c.Email)
}

func clientField(c *domain.Client, field string) any {
	switch field {
	case "name":
		return c.Name
	case "created_at":
		return c.CreatedAt
	default:
		return c.UpdatedAt
	}
}
