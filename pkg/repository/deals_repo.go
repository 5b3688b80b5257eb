package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tendant/nexus-crm/pkg/domain"
)

const dealSelect = `
	SELECT d.id, d.user_id, d.client_id, COALESCE(c.name, ''), d.title, d.value, d.currency,
	       d.stage, d.probability, d.expected_close_date, d.created_at, d.updated_at
	FROM deals d
	LEFT JOIN clients c ON c.id = d.client_id AND c.user_id = d.user_id`

// DealsRepository handles deal persistence.
type DealsRepository struct {
	db *sql.DB
}

// NewDealsRepository creates a new deals repository.
func NewDealsRepository(db *sql.DB) *DealsRepository {
	return &DealsRepository{db: db}
}

// Create inserts a deal owned by tenantID after checking the referenced
// client belongs to the same tenant.
func (r *DealsRepository) Create(ctx context.Context, tenantID uuid.UUID, draft *domain.Deal) (*domain.Deal, error) {
	now := time.Now().UTC()
	d := *draft
	d.ID = uuid.New()
	d.UserID = tenantID
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Stage == "" {
		d.Stage = domain.StageProspect
	}
	if d.Currency == "" {
		d.Currency = domain.DefaultCurrency
	}

	var created *domain.Deal
	err := Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := ensureClient(ctx, tx, tenantID, d.ClientID); err != nil {
			return err
		}
		query := `
			INSERT INTO deals (id, user_id, client_id, title, value, currency, stage, probability,
			                   expected_close_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		_, err := tx.ExecContext(ctx, query,
			d.ID, d.UserID, nullableID(d.ClientID), d.Title, d.Value, d.Currency, string(d.Stage),
			d.Probability, nullableTime(d.ExpectedCloseDate), d.CreatedAt, d.UpdatedAt,
		)
		if err != nil {
			return mapPostgresError(err)
		}
		created, err = getDeal(ctx, tx, tenantID, d.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get retrieves a deal by id within the tenant.
func (r *DealsRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Deal, error) {
	return getDeal(ctx, r.db, tenantID, id)
}

// List returns the tenant's deals matching filter.
func (r *DealsRepository) List(ctx context.Context, tenantID uuid.UUID, filter DealFilter) ([]*domain.Deal, error) {
	return listDeals(ctx, r.db, tenantID, filter)
}

// Count returns the number of the tenant's deals matching filter.
func (r *DealsRepository) Count(ctx context.Context, tenantID uuid.UUID, filter DealFilter) (int, error) {
	conds := dealConditions(tenantID, filter)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals d`+conds.where(), conds.args...).Scan(&n)
	return n, mapPostgresError(err)
}

// Update applies patch to the tenant's deal. The row is rewritten in a single
// statement, so concurrent updates resolve as last writer wins.
func (r *DealsRepository) Update(ctx context.Context, tenantID, id uuid.UUID, patch domain.DealPatch) (*domain.Deal, error) {
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
	if patch.Value != nil {
		u.set("value", *patch.Value)
	}
	if patch.Currency != nil {
		u.set("currency", *patch.Currency)
	}
	if patch.Stage != nil {
		u.set("stage", string(*patch.Stage))
	}
	if patch.Probability != nil {
		u.set("probability", *patch.Probability)
	}
	if patch.ExpectedCloseDate != nil {
		u.set("expected_close_date", nullableTime(patch.ExpectedCloseDate))
	}

	var updated *domain.Deal
	err := Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := ensureClient(ctx, tx, tenantID, patch.ClientID); err != nil {
			return err
		}
		query, args := u.statement("deals", tenantID, id, time.Now().UTC())
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return mapPostgresError(err)
		}
		if err := affected(result, domain.ErrDealNotFound); err != nil {
			return err
		}
		updated, err = getDeal(ctx, tx, tenantID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the tenant's deal.
func (r *DealsRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = $1 AND user_id = $2`, id, tenantID)
	if err != nil {
		return mapPostgresError(err)
	}
	return affected(result, domain.ErrDealNotFound)
}

func dealConditions(tenantID uuid.UUID, filter DealFilter) *conditions {
	conds := newConditions(tenantID, "d.user_id")
	if filter.Stage != nil {
		conds.add("d.stage = %s", string(*filter.Stage))
	}
	if len(filter.ExcludeStages) > 0 {
		stages := make([]string, len(filter.ExcludeStages))
		for i, s := range filter.ExcludeStages {
			stages[i] = string(s)
		}
		conds.add("d.stage <> ALL(%s)", pq.Array(stages))
	}
	if filter.ClientID != nil {
		conds.add("d.client_id = %s", *filter.ClientID)
	}
	if filter.Search != "" {
		conds.add("d.title ILIKE %s", likePattern(filter.Search))
	}
	return conds
}

func listDeals(ctx context.Context, q Querier, tenantID uuid.UUID, filter DealFilter) ([]*domain.Deal, error) {
	order, err := filter.OrderBy.Resolve(DealsByRecent, DealOrderFields)
	if err != nil {
		return nil, err
	}

	conds := dealConditions(tenantID, filter)
	query := dealSelect + conds.where() + orderClause(order, "d.") + limitClause(conds, filter.Limit)

	rows, err := q.QueryContext(ctx, query, conds.args...)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	deals := []*domain.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func getDeal(ctx context.Context, q Querier, tenantID, id uuid.UUID) (*domain.Deal, error) {
	row := q.QueryRowContext(ctx, dealSelect+` WHERE d.id = $1 AND d.user_id = $2`, id, tenantID)
	d, err := scanDeal(row)
	if err != nil {
		return nil, noRows(err, domain.ErrDealNotFound)
	}
	return d, nil
}

func scanDeal(s scanner) (*domain.Deal, error) {
	d := &domain.Deal{}
	var (
		clientID  uuid.NullUUID
		stage     string
		closeDate sql.NullTime
	)
	err := s.Scan(&d.ID, &d.UserID, &clientID, &d.ClientName, &d.Title, &d.Value, &d.Currency,
		&stage, &d.Probability, &closeDate, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.ClientID = idPtr(clientID)
	d.Stage = domain.Stage(stage)
	d.ExpectedCloseDate = timePtr(closeDate)
	return d, nil
}
