// Package memory implements the repository stores in process memory. Data is
// lost on restart; the stores back tests and single-node development.
package memory

import (
	"bytes"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
	"github.com/tendant/nexus-crm/pkg/repository"
)

// DB holds every table behind a single lock so that cross-table rules
// (client ownership checks, the client delete policy) are atomic.
type DB struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*domain.User
	usersByEmail map[string]uuid.UUID // lower(email) -> user id
	clients      map[uuid.UUID]*domain.Client
	deals        map[uuid.UUID]*domain.Deal
	tasks        map[uuid.UUID]*domain.Task
	notes        map[uuid.UUID]*domain.Note

	now  func() time.Time
	last time.Time
}

// New creates an empty database.
func New() *DB {
	return &DB{
		users:        make(map[uuid.UUID]*domain.User),
		usersByEmail: make(map[string]uuid.UUID),
		clients:      make(map[uuid.UUID]*domain.Client),
		deals:        make(map[uuid.UUID]*domain.Deal),
		tasks:        make(map[uuid.UUID]*domain.Task),
		notes:        make(map[uuid.UUID]*domain.Note),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// NewStores returns a repository.Stores backed by a fresh in-memory database.
func NewStores() repository.Stores {
	return New().Stores()
}

// Stores returns store views over db.
func (db *DB) Stores() repository.Stores {
	return repository.Stores{
		Users:   &UserStore{db: db},
		Clients: &ClientStore{db: db},
		Deals:   &DealStore{db: db},
		Tasks:   &TaskStore{db: db},
		Notes:   &NoteStore{db: db},
	}
}

// stamp returns a write timestamp strictly after every earlier one, so
// recency ordering is total. Caller holds the write lock.
func (db *DB) stamp() time.Time {
	now := db.now()
	if !now.After(db.last) {
		now = db.last.Add(time.Microsecond)
	}
	db.last = now
	return now
}

// ownedClient returns the tenant's client or nil. Caller holds the lock.
func (db *DB) ownedClient(tenantID, id uuid.UUID) *domain.Client {
	c, ok := db.clients[id]
	if !ok || c.UserID != tenantID {
		return nil
	}
	return c
}

// checkClient accepts a nil or zero id as "no client". Caller holds the lock.
func (db *DB) checkClient(tenantID uuid.UUID, id *uuid.UUID) error {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	if db.ownedClient(tenantID, *id) == nil {
		return domain.ErrClientNotFound
	}
	return nil
}

func (db *DB) clientName(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	if c, ok := db.clients[*id]; ok {
		return c.Name
	}
	return ""
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := *t
	return &v
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// compareValues orders two column values of the same kind. Nil pointers sort
// after everything else regardless of direction, as NULLS LAST does in SQL.
func compareValues(a, b any, desc bool) int {
	var c int
	switch av := a.(type) {
	case string:
		c = strings.Compare(strings.ToLower(av), strings.ToLower(b.(string)))
	case int:
		c = cmpOrdered(av, b.(int))
	case float64:
		c = cmpOrdered(av, b.(float64))
	case time.Time:
		c = av.Compare(b.(time.Time))
	case *time.Time:
		bv := b.(*time.Time)
		switch {
		case av == nil && bv == nil:
			return 0
		case av == nil:
			return 1
		case bv == nil:
			return -1
		}
		c = av.Compare(*bv)
	}
	if desc {
		return -c
	}
	return c
}

func cmpOrdered[T int | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
