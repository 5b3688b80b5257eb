package repository

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/tendant/nexus-crm/pkg/domain"
)

// mapPostgresError maps lib/pq errors to domain errors. Anything unrecognised
// is returned wrapped so callers treat it as an internal failure.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code.Name() {
	case "unique_violation":
		if pqErr.Constraint == "users_email_lower_key" {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("unique constraint violation: %s: %w", pqErr.Constraint, err)
	case "foreign_key_violation":
		// A referenced client vanished between the ownership check and the write.
		// The detail names the key and table, so it is logged, never returned.
		slog.Warn("foreign key violation", "constraint", pqErr.Constraint, "detail", pqErr.Detail)
		return domain.ErrClientNotFound
	case "check_violation":
		return fmt.Errorf("check constraint violation: %s: %w", pqErr.Constraint, err)
	case "invalid_text_representation":
		return fmt.Errorf("invalid input value: %w", err)
	default:
		return fmt.Errorf("postgres error [%s]: %s: %w", pqErr.Code, pqErr.Message, err)
	}
}
