package repository

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

// Ordering is a field and direction pair. The record id is always appended as
// a final tie-breaker so results are stable.
type Ordering struct {
	Field string
	Desc  bool
}

// Sortable fields per entity.
var (
	ClientOrderFields = []string{"name", "created_at", "updated_at"}
	DealOrderFields   = []string{"title", "value", "probability", "expected_close_date", "created_at", "updated_at"}
	TaskOrderFields   = []string{"title", "due_date", "created_at", "updated_at"}
)

// Default orderings.
var (
	ClientsByRecent = Ordering{Field: "updated_at", Desc: true}
	DealsByRecent   = Ordering{Field: "updated_at", Desc: true}
	TasksByDueDate  = Ordering{Field: "due_date"}
)

// Resolve substitutes def for an empty ordering and rejects fields outside
// allowed.
func (o Ordering) Resolve(def Ordering, allowed []string) (Ordering, error) {
	if o.Field == "" {
		return def, nil
	}
	for _, f := range allowed {
		if o.Field == f {
			return o, nil
		}
	}
	return Ordering{}, domain.NewValidationError("order_by", fmt.Sprintf("unsupported field %q", o.Field))
}

// ClientFilter is a conjunction of optional predicates.
type ClientFilter struct {
	Status *domain.ClientStatus
	// Search matches name, company or email, case-insensitively.
	Search  string
	Limit   int
	OrderBy Ordering
}

// DealFilter is a conjunction of optional predicates.
type DealFilter struct {
	Stage         *domain.Stage
	ExcludeStages []domain.Stage
	ClientID      *uuid.UUID
	// Search matches the title, case-insensitively.
	Search  string
	Limit   int
	OrderBy Ordering
}

// TaskFilter is a conjunction of optional predicates.
type TaskFilter struct {
	Status   *domain.TaskStatus
	ClientID *uuid.UUID
	// Search matches the title, case-insensitively.
	Search  string
	Limit   int
	OrderBy Ordering
}

// ActiveDeals selects deals that are not won or lost.
func ActiveDeals() DealFilter {
	return DealFilter{ExcludeStages: []domain.Stage{domain.StageWon, domain.StageLost}}
}

// MatchesText reports whether any of fields contains query, ignoring case.
// It is the in-process counterpart of the ILIKE predicate used in SQL.
func MatchesText(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
