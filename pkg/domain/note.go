package domain

import (
	"time"

	"github.com/google/uuid"
)

// Note is free text attached to a client. Notes are deleted with their client.
type Note struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ClientID  uuid.UUID `json:"client_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
