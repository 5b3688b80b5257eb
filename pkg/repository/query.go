package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

// conditions accumulates WHERE clauses with numbered placeholders.
type conditions struct {
	clauses []string
	args    []any
}

func newConditions(tenantID uuid.UUID, column string) *conditions {
	c := &conditions{}
	c.add(column+" = %s", tenantID)
	return c
}

// add appends a clause. Every %s (or %[1]s) in clause is replaced by the
// placeholder bound to arg.
func (c *conditions) add(clause string, arg any) {
	c.args = append(c.args, arg)
	ph := fmt.Sprintf("$%d", len(c.args))
	c.clauses = append(c.clauses, strings.ReplaceAll(clause, "%s", ph))
}

func (c *conditions) where() string {
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// next returns the placeholder for the following argument.
func (c *conditions) next(arg any) string {
	c.args = append(c.args, arg)
	return fmt.Sprintf("$%d", len(c.args))
}

// likePattern escapes LIKE metacharacters and wraps s for substring matching.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func orderClause(o Ordering, prefix string) string {
	dir := "ASC"
	nulls := "NULLS LAST"
	if o.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s%s %s %s, %sid ASC", prefix, o.Field, dir, nulls, prefix)
}

func limitClause(c *conditions, limit int) string {
	if limit <= 0 {
		return ""
	}
	return " LIMIT " + c.next(limit)
}

// updates accumulates SET assignments for a partial update.
type updates struct {
	sets []string
	args []any
}

func (u *updates) set(column string, arg any) {
	u.args = append(u.args, arg)
	u.sets = append(u.sets, fmt.Sprintf("%s = $%d", column, len(u.args)))
}

func (u *updates) empty() bool { return len(u.sets) == 0 }

// statement builds "UPDATE table SET ..., updated_at = now WHERE id = .. AND user_id = ..".
func (u *updates) statement(table string, tenantID, id uuid.UUID, now time.Time) (string, []any) {
	u.set("updated_at", now)
	args := append(u.args, id, tenantID)
	n := len(u.args)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d AND user_id = $%d",
		table, strings.Join(u.sets, ", "), n+1, n+2)
	return query, args
}

func nullableID(id *uuid.UUID) uuid.NullUUID {
	if id == nil || *id == uuid.Nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func idPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

// ensureClient verifies clientID is owned by tenantID. A nil or zero id is
// accepted as "no client".
func ensureClient(ctx context.Context, q Querier, tenantID uuid.UUID, clientID *uuid.UUID) error {
	if clientID == nil || *clientID == uuid.Nil {
		return nil
	}
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1 AND user_id = $2)`,
		*clientID, tenantID,
	).Scan(&exists)
	if err != nil {
		return mapPostgresError(err)
	}
	if !exists {
		return domain.ErrClientNotFound
	}
	return nil
}

// affected converts a zero-row result into notFound.
func affected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func noRows(err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return mapPostgresError(err)
}

func joinSets(u *updates) string {
	return strings.Join(u.sets, ", ")
}
