package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClientStatus is the relationship state of a client.
type ClientStatus string

const (
	ClientStatusLead   ClientStatus = "lead"
	ClientStatusActive ClientStatus = "active"
	ClientStatusPast   ClientStatus = "past"
)

// ClientStatuses lists every valid client status.
var ClientStatuses = []ClientStatus{ClientStatusLead, ClientStatusActive, ClientStatusPast}

// Valid reports whether s is a known status.
func (s ClientStatus) Valid() bool {
	for _, v := range ClientStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Client is a customer record owned by a single user.
type Client struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	Name      string       `json:"name"`
	Company   string       `json:"company"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone"`
	Website   string       `json:"website"`
	Status    ClientStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ClientDetail is a client with everything attached to it.
type ClientDetail struct {
	Client
	Deals []*Deal `json:"deals"`
	Tasks []*Task `json:"tasks"`
	Notes []*Note `json:"notes"`
}

// ClientPatch holds the fields of a partial client update.
type ClientPatch struct {
	Name    *string
	Company *string
	Email   *string
	Phone   *string
	Website *string
	Status  *ClientStatus
}

// IsEmpty reports whether the patch changes nothing.
func (p ClientPatch) IsEmpty() bool {
	return p.Name == nil && p.Company == nil && p.Email == nil &&
		p.Phone == nil && p.Website == nil && p.Status == nil
}

// Apply writes the patch onto c.
func (p ClientPatch) Apply(c *Client) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Website != nil {
		c.Website = *p.Website
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
}
