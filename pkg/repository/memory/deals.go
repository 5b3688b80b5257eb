package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository"
)

// DealStore implements repository.DealStore.
type DealStore struct {
	db *DB
}

// Create stores a deal owned by tenantID.
func (s *DealStore) Create(ctx context.Context, tenantID uuid.UUID, draft *domain.Deal) (*domain.Deal, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := s.db.checkClient(tenantID, draft.ClientID); err != nil {
		return nil, err
	}

	now := s.db.stamp()
	d := *draft
	d.ID = uuid.New()
	d.UserID = tenantID
	d.ClientID = cloneID(draft.ClientID)
	d.ExpectedCloseDate = cloneTime(draft.ExpectedCloseDate)
	d.ClientName = ""
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Stage == "" {
		d.Stage = domain.StageProspect
	}
	if d.Currency == "" {
		d.Currency = domain.DefaultCurrency
	}

	s.db.deals[d.ID] = &d
	return s.db.dealView(&d), nil
}

// Get retrieves the tenant's deal.
func (s *DealStore) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Deal, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	d, ok := s.db.deals[id]
	if !ok || d.UserID != tenantID {
		return nil, domain.ErrDealNotFound
	}
	return s.db.dealView(d), nil
}

// List returns the tenant's deals matching filter.
func (s *DealStore) List(ctx context.Context, tenantID uuid.UUID, filter repository.DealFilter) ([]*domain.Deal, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.db.listDeals(tenantID, filter)
}

// Count returns the number of the tenant's deals matching filter.
func (s *DealStore) Count(ctx context.Context, tenantID uuid.UUID, filter repository.DealFilter) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	n := 0
	for _, d := range s.db.deals {
		if matchDeal(d, tenantID, filter) {
			n++
		}
	}
	return n, nil
}

// Update applies patch to the tenant's deal.
func (s *DealStore) Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.DealPatch) (*domain.Deal, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	d, ok := s.db.deals[id]
	if !ok || d.UserID != tenantID {
		return nil, domain.ErrDealNotFound
	}
	if patch.IsEmpty() {
		return s.db.dealView(d), nil
	}
	if err := s.db.checkClient(tenantID, patch.ClientID); err != nil {
		return nil, err
	}
	patch.Apply(d)
	d.UpdatedAt = s.db.stamp()
	return s.db.dealView(d), nil
}

// Delete removes the tenant's deal.
func (s *DealStore) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	d, ok := s.db.deals[id]
	if !ok || d.UserID != tenantID {
		return domain.ErrDealNotFound
	}
	delete(s.db.deals, id)
	return nil
}

// dealView clones d and resolves the client name. Caller holds the lock.
func (db *DB) dealView(d *domain.Deal) *domain.Deal {
	clone := *d
	clone.ClientID = cloneID(d.ClientID)
	clone.ExpectedCloseDate = cloneTime(d.ExpectedCloseDate)
	clone.ClientName = db.clientName(d.ClientID)
	return &clone
}

func (db *DB) listDeals(tenantID uuid.UUID, filter repository.DealFilter) ([]*domain.Deal, error) {
	order, err := filter.OrderBy.Resolve(repository.DealsByRecent, repository.DealOrderFields)
	if err != nil {
		return nil, err
	}

	deals := []*domain.Deal{}
	for _, d := range db.deals {
		if matchDeal(d, tenantID, filter) {
			deals = append(deals, db.dealView(d))
		}
	}
	slices.SortFunc(deals, func(a, b *domain.Deal) int {
		if c := compareValues(dealField(a, order.Field), dealField(b, order.Field), order.Desc); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return limit(deals, filter.Limit), nil
}

func matchDeal(d *domain.Deal, tenantID uuid.UUID, f repository.DealFilter) bool {
	if d.UserID != tenantID {
		return false
	}
	if f.Stage != nil && d.Stage != *f.Stage {
		return false
	}
	if slices.Contains(f.ExcludeStages, d.Stage) {
		return false
	}
	if f.ClientID != nil && (d.ClientID == nil || *d.ClientID != *f.ClientID) {
		return false
	}
	return repository.MatchesText(f.Search, d.Title)
}

func dealField(d *domain.Deal, field string) any {
	switch field {
	case "title":
		return d.Title
	case "value":
		return d.Value
	case "probability":
		return d.Probability
	case "expected_close_date":
		return d.ExpectedCloseDate
	case "created_at":
		return d.CreatedAt
	default:
		return d.UpdatedAt
	}
}
