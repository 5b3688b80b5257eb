package validate

import (
	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

// NoteInput is the request body for adding a note to a client.
type NoteInput struct {
	Content *string `json:"content"`
}

type noteRules struct {
	Content string `json:"content" validate:"required,max=10000"`
}

// NoteCreate validates a note for clientID.
func NoteCreate(clientID uuid.UUID, in NoteInput) (*domain.Note, error) {
	r := noteRules{Content: trimmed(in.Content)}
	c := &collector{}
	c.check(r)
	if err := c.err(); err != nil {
		return nil, err
	}
	return &domain.Note{ClientID: clientID, Content: r.Content}, nil
}
