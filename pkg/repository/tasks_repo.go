package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

const taskSelect = `
	SELECT t.id, t.user_id, t.client_id, COALESCE(c.name, ''), t.title, t.due_date, t.priority,
	       t.status, t.created_at, t.updated_at
	FROM tasks t
	LEFT JOIN clients c ON c.id = t.client_id AND c.user_id = t.user_id`

// TasksRepository handles task persistence.
type TasksRepository struct {
	db *sql.DB
}

// NewTasksRepository creates a new tasks repository.
func NewTasksRepository(db *sql.DB) *TasksRepository {
	return &TasksRepository{db: db}
}

// Create inserts a task owned by tenantID.
func (r *TasksRepository) Create(ctx context.Context, tenantID uuid.UUID, draft *domain.Task) (*domain.Task, error) {
	now := time.Now().UTC()
	t := *draft
	t.ID = uuid.New()
	t.UserID = tenantID
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if t.Status == "" {
		t.Status = domain.TaskStatusOpen
	}

	var created *domain.Task
	err := Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := ensureClient(ctx, tx, tenantID, t.ClientID); err != nil {
			return err
		}
		query := `
			INSERT INTO tasks (id, user_id, client_id, title, due_date, priority, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		_, err := tx.ExecContext(ctx, query,
			t.ID, t.UserID, nullableID(t.ClientID), t.Title, nullableTime(t.DueDate),
			string(t.Priority), string(t.Status), t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return mapPostgresError(err)
		}
		created, err = getTask(ctx, tx, tenantID, t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get retrieves a task by id within the tenant.
func (r *TasksRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Task, error) {
	return getTask(ctx, r.db, tenantID, id)
}

// List returns the tenant's tasks matching filter, by due date by default.
func (r *TasksRepository) List(ctx context.Context, tenantID uuid.UUID, filter TaskFilter) ([]*domain.Task, error) {
	return listTasks(ctx, r.db, tenantID, filter)
}

// Count returns the number of the tenant's tasks matching filter.
func (r *TasksRepository) Count(ctx context.Context, tenantID uuid.UUID, filter TaskFilter) (int, error) {
	conds := taskConditions(tenantID, filter)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t`+conds.where(), conds.args...).Scan(&n)
	return n, mapPostgresError(err)
}

// Update applies patch to the tenant's task.
func (r *TasksRepository) Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.IsEmpty() {
		return r.Get(ctx, tenantID, id)
	}

	u := &updates{}
	if patch.Title != nil {
		u.set("title", *patch.Title)
	}
	if patch.ClientID != nil {
		u.set("client_id", nullableID(patch.ClientID))
	}
	if patch.DueDate != nil {
		u.set("due_date", nullableTime(patch.DueDate))
	}
	if patch.Priority != nil {
		u.set("priority", string(*patch.Priority))
	}
	if patch.Status != nil {
		u.set("status", string(*patch.Status))
	}

	var updated *domain.Task
	err := Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := ensureClient(ctx, tx, tenantID, patch.ClientID); err != nil {
			return err
		}
		query, args := u.statement("tasks", tenantID, id, time.Now().UTC())
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return mapPostgresError(err)
		}
		if err := affected(result, domain.ErrTaskNotFound); err != nil {
			return err
		}
		updated, err = getTask(ctx, tx, tenantID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the tenant's task.
func (r *TasksRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, tenantID)
	if err != nil {
		return mapPostgresError(err)
	}
	return affected(result, domain.ErrTaskNotFound)
}

func taskConditions(tenantID uuid.UUID, filter TaskFilter) *conditions {
	conds := newConditions(tenantID, "t.user_id")
	if filter.Status != nil {
		conds.add("t.status = %s", string(*filter.Status))
	}
	if filter.ClientID != nil {
		conds.add("t.client_id = %s", *filter.ClientID)
	}
	if filter.Search != "" {
		conds.add("t.title ILIKE %s", likePattern(filter.Search))
	}
	return conds
}

func listTasks(ctx context.Context, q Querier, tenantID uuid.UUID, filter TaskFilter) ([]*domain.Task, error) {
	order, err := filter.OrderBy.Resolve(TasksByDueDate, TaskOrderFields)
	if err != nil {
		return nil, err
	}

	conds := taskConditions(tenantID, filter)
	query := taskSelect + conds.where() + orderClause(order, "t.") + limitClause(conds, filter.Limit)

	rows, err := q.QueryContext(ctx, query, conds.args...)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func getTask(ctx context.Context, q Querier, tenantID, id uuid.UUID) (*domain.Task, error) {
	row := q.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1 AND t.user_id = $2`, id, tenantID)
	t, err := scanTask(row)
	if err != nil {
		return nil, noRows(err, domain.ErrTaskNotFound)
	}
	return t, nil
}

func scanTask(s scanner) (*domain.Task, error) {
	t := &domain.Task{}
	var (
		clientID uuid.NullUUID
		dueDate  sql.NullTime
		priority string
		status   string
	)
	err := s.Scan(&t.ID, &t.UserID, &clientID, &t.ClientName, &t.Title, &dueDate, &priority,
		&status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.ClientID = idPtr(clientID)
	t.DueDate = timePtr(dueDate)
	t.Priority = domain.Priority(priority)
	t.Status = domain.TaskStatus(status)
	return t, nil
}
