package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository"
)

// TaskStore implements repository.TaskStore.
type TaskStore struct {
	db *DB
}

// Create stores a task owned by tenantID.
func (s *TaskStore) Create(ctx context.Context, tenantID uuid.UUID, draft *domain.Task) (*domain.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := s.db.checkClient(tenantID, draft.ClientID); err != nil {
		return nil, err
	}

	now := s.db.stamp()
	t := *draft
	t.ID = uuid.New()
	t.UserID = tenantID
	t.ClientID = cloneID(draft.ClientID)
	t.DueDate = cloneTime(draft.DueDate)
	t.ClientName = ""
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if t.Status == "" {
		t.Status = domain.TaskStatusOpen
	}

	s.db.tasks[t.ID] = &t
	return s.db.taskView(&t), nil
}

// Get retrieves the tenant's task.
func (s *TaskStore) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	t, ok := s.db.tasks[id]
	if !ok || t.UserID != tenantID {
		return nil, domain.ErrTaskNotFound
	}
	return s.db.taskView(t), nil
}

// List returns the tenant's tasks matching filter.
func (s *TaskStore) List(ctx context.Context, tenantID uuid.UUID, filter repository.TaskFilter) ([]*domain.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.db.listTasks(tenantID, filter)
}

// Count returns the number of the tenant's tasks matching filter.
func (s *TaskStore) Count(ctx context.Context, tenantID uuid.UUID, filter repository.TaskFilter) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	n := 0
	for _, t := range s.db.tasks {
		if matchTask(t, tenantID, filter) {
			n++
		}
	}
	return n, nil
}

// Update applies patch to the tenant's task.
func (s *TaskStore) Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t, ok := s.db.tasks[id]
	if !ok || t.UserID != tenantID {
		return nil, domain.ErrTaskNotFound
	}
	if patch.IsEmpty() {
		return s.db.taskView(t), nil
	}
	if err := s.db.checkClient(tenantID, patch.ClientID); err != nil {
		return nil, err
	}
	patch.Apply(t)
	t.UpdatedAt = s.db.stamp()
	return s.db.taskView(t), nil
}

// Delete removes the tenant's task.
func (s *TaskStore) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t, ok := s.db.tasks[id]
	if !ok || t.UserID != tenantID {
		return domain.ErrTaskNotFound
	}
	delete(s.db.tasks, id)
	return nil
}

func (db *DB) taskView(t *domain.Task) *domain.Task {
	clone := *t
	clone.ClientID = cloneID(t.ClientID)
	clone.DueDate = cloneTime(t.DueDate)
	clone.ClientName = db.clientName(t.ClientID)
	return &clone
}

func (db *DB) listTasks(tenantID uuid.UUID, filter repository.TaskFilter) ([]*domain.Task, error) {
	order, err := filter.OrderBy.Resolve(repository.TasksByDueDate, repository.TaskOrderFields)
	if err != nil {
		return nil, err
	}

	tasks := []*domain.Task{}
	for _, t := range db.tasks {
		if matchTask(t, tenantID, filter) {
			tasks = append(tasks, db.taskView(t))
		}
	}
	slices.SortFunc(tasks, func(a, b *domain.Task) int {
		if c := compareValues(taskField(a, order.Field), taskField(b, order.Field), order.Desc); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return limit(tasks, filter.Limit), nil
}

func matchTask(t *domain.Task, tenantID uuid.UUID, f repository.TaskFilter) bool {
	if t.UserID != tenantID {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.ClientID != nil && (t.ClientID == nil || *t.ClientID != *f.ClientID) {
		return false
	}
	return repository.MatchesText(f.Search, t.Title)
}

func taskField(t *domain.Task, field string) any {
	switch field {
	case "title":
		return t.Title
	case "due_date":
		return t.DueDate
	case "created_at":
		return t.CreatedAt
	default:
		return t.UpdatedAt
	}
}
