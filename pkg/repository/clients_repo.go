package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

const clientColumns = `id, user_id, name, company, email, phone, website, status, created_at, updated_at`

// ClientsRepository handles client persistence.
type ClientsRepository struct {
	db *sql.DB
}

// NewClientsRepository creates a new clients repository.
func NewClientsRepository(db *sql.DB) *ClientsRepository {
	return &ClientsRepository{db: db}
}

// Create inserts a client owned by tenantID.
func (r *ClientsRepository) Create(ctx context.Context, tenantID uuid.UUID, draft *domain.Client) (*domain.Client, error) {
	now := time.Now().UTC()
	c := *draft
	c.ID = uuid.New()
	c.UserID = tenantID
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = domain.ClientStatusLead
	}

	query := `
		INSERT INTO clients (id, user_id, name, company, email, phone, website, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + clientColumns
	row := r.db.QueryRowContext(ctx, query,
		c.ID, c.UserID, c.Name, c.Company, c.Email, c.Phone, c.Website, string(c.Status),
		c.CreatedAt, c.UpdatedAt,
	)
	created, err := scanClient(row)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return created, nil
}

// Get retrieves a client by id within the tenant.
func (r *ClientsRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Client, error) {
	return getClient(ctx, r.db, tenantID, id)
}

// GetDetail retrieves a client with its deals, tasks and notes from a single
// transaction snapshot.
func (r *ClientsRepository) GetDetail(ctx context.Context, tenantID, id uuid.UUID) (*domain.ClientDetail, error) {
	var detail *domain.ClientDetail
	err := Tx(ctx, r.db, func(tx *sql.Tx) error {
		client, err := getClient(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		deals, err := listDeals(ctx, tx, tenantID, DealFilter{ClientID: &id})
		if err != nil {
			return err
		}
		tasks, err := listTasks(ctx, tx, tenantID, TaskFilter{ClientID: &id})
		if err != nil {
			return err
		}
		notes, err := listNotes(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		detail = &domain.ClientDetail{Client: *client, Deals: deals, Tasks: tasks, Notes: notes}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// List returns the tenant's clients matching filter.
func (r *ClientsRepository) List(ctx context.Context, tenantID uuid.UUID, filter ClientFilter) ([]*domain.Client, error) {
	order, err := filter.OrderBy.Resolve(ClientsByRecent, ClientOrderFields)
	if err != nil {
		return nil, err
	}

	conds := clientConditions(tenantID, filter)
	query := `SELECT ` + clientColumns + ` FROM clients` + conds.where() + orderClause(order, "") + limitClause(conds, filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, conds.args...)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	clients := []*domain.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// Count returns the number of the tenant's clients matching filter.
func (r *ClientsRepository) Count(ctx context.Context, tenantID uuid.UUID, filter ClientFilter) (int, error) {
	conds := clientConditions(tenantID, filter)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`+conds.where(), conds.args...).Scan(&n)
	return n, mapPostgresError(err)
}

// Update applies patch to the tenant's client.
func (r *ClientsRepository) Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.ClientPatch) (*domain.Client, error) {
	if patch.IsEmpty() {
		return r.Get(ctx, tenantID, id)
	}

	u := &updates{}
	if patch.Name != nil {
		u.set("name", *patch.Name)
	}
	if patch.Company != nil {
		u.set("company", *patch.Company)
	}
	if patch.Email != nil {
		u.set("email", *patch.Email)
	}
	if patch.Phone != nil {
		u.set("phone", *patch.Phone)
	}
	if patch.Website != nil {
		u.set("website", *patch.Website)
	}
	if patch.Status != nil {
		u.set("status", string(*patch.Status))
	}

	query, args := u.statement("clients", tenantID, id, time.Now().UTC())
	row := r.db.QueryRowContext(ctx, query+` RETURNING `+clientColumns, args...)
	c, err := scanClient(row)
	if err != nil {
		return nil, noRows(err, domain.ErrClientNotFound)
	}
	return c, nil
}

// Delete removes the tenant's client. Deals and tasks are detached and notes
// are removed by the foreign keys.
func (r *ClientsRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1 AND user_id = $2`, id, tenantID)
	if err != nil {
		return mapPostgresError(err)
	}
	return affected(result, domain.ErrClientNotFound)
}

func clientConditions(tenantID uuid.UUID, filter ClientFilter) *conditions {
	conds := newConditions(tenantID, "user_id")
	if filter.Status != nil {
		conds.add("status = %s", string(*filter.Status))
	}
	if filter.Search != "" {
		conds.add("(name ILIKE %s OR company ILIKE %s OR email ILIKE %s)", likePattern(filter.Search))
	}
	return conds
}

func getClient(ctx context.Context, q Querier, tenantID, id uuid.UUID) (*domain.Client, error) {
	row := q.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 AND user_id = $2`, id, tenantID)
	c, err := scanClient(row)
	if err != nil {
		return nil, noRows(err, domain.ErrClientNotFound)
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(s scanner) (*domain.Client, error) {
	c := &domain.Client{}
	var status string
	err := s.Scan(&c.ID, &c.UserID, &c.Name, &c.Company, &c.Email, &c.Phone, &c.Website, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = domain.ClientStatus(status)
	return c, nil
}
