package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

const userColumns = `id, email, password_hash, name, currency, timezone, created_at, updated_at`

// UsersRepository handles user persistence.
type UsersRepository struct {
	db *sql.DB
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(db *sql.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

// Create creates a new user.
func (r *UsersRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, currency, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Currency, user.Timezone,
		user.CreatedAt, user.UpdatedAt,
	)
	return mapPostgresError(err)
}

// GetByID retrieves a user by ID.
func (r *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

// UpdateProfile updates name, currency and timezone.
func (r *UsersRepository) UpdateProfile(ctx context.Context, id uuid.UUID, patch domain.ProfilePatch) (*domain.User, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	u := &updates{}
	if patch.Name != nil {
		u.set("name", *patch.Name)
	}
	if patch.Currency != nil {
		u.set("currency", *patch.Currency)
	}
	if patch.Timezone != nil {
		u.set("timezone", *patch.Timezone)
	}
	u.set("updated_at", time.Now().UTC())
	u.args = append(u.args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`, joinSets(u), len(u.args), userColumns)
	return scanUser(r.db.QueryRowContext(ctx, query, u.args...))
}

func scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Currency, &user.Timezone,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, noRows(err, domain.ErrUserNotFound)
	}
	return user, nil
}
