package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile defaults for new accounts.
const (
	DefaultCurrency = "USD"
	DefaultTimezone = "UTC"
)

// User is the account and the tenancy root. Every other record belongs to
// exactly one user.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Currency     string    `json:"currency"`
	Timezone     string    `json:"timezone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal returns the session identity derived from the user's profile.
func (u *User) Principal() *Principal {
	return &Principal{
		UserID:   u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Currency: u.Currency,
		Timezone: u.Timezone,
	}
}

// ProfilePatch updates the mutable profile fields. Nil fields are left unchanged.
type ProfilePatch struct {
	Name     *string
	Currency *string
	Timezone *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.Currency == nil && p.Timezone == nil
}

// Principal is the authenticated identity plus the cached profile attached
// to a request.
type Principal struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Currency string    `json:"currency"`
	Timezone string    `json:"timezone"`
}

// Apply returns a copy of the principal with the patch applied.
func (p Principal) Apply(patch ProfilePatch) Principal {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Currency != nil {
		p.Currency = *patch.Currency
	}
	if patch.Timezone != nil {
		p.Timezone = *patch.Timezone
	}
	return p
}
