package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stage is the pipeline state of a deal.
type Stage string

const (
	StageProspect    Stage = "prospect"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageWon         Stage = "won"
	StageLost        Stage = "lost"
)

// Stages lists the pipeline columns in board order.
var Stages = []Stage{StageProspect, StageProposal, StageNegotiation, StageWon, StageLost}

// Valid reports whether s is one of the pipeline stages.
func (s Stage) Valid() bool {
	for _, v := range Stages {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether the deal is closed.
func (s Stage) Terminal() bool {
	return s == StageWon || s == StageLost
}

// ParseStage converts a raw value into a Stage.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", ErrInvalidStage
	}
	return s, nil
}

// Deal is a sales opportunity, optionally attached to a client.
type Deal struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	ClientID          *uuid.UUID `json:"client_id"`
	ClientName        string     `json:"client_name,omitempty"`
	Title             string     `json:"title"`
	Value             float64    `json:"value"`
	Currency          string     `json:"currency"`
	Stage             Stage      `json:"stage"`
	Probability       int        `json:"probability"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// DealPatch holds the fields of a partial deal update.
//
// ClientID pointing at uuid.Nil detaches the deal from its client and
// ExpectedCloseDate pointing at the zero time clears the date.
type DealPatch struct {
	Title             *string
	ClientID          *uuid.UUID
	Value             *float64
	Currency          *string
	Stage             *Stage
	Probability       *int
	ExpectedCloseDate *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p DealPatch) IsEmpty() bool {
	return p.Title == nil && p.ClientID == nil && p.Value == nil && p.Currency == nil &&
		p.Stage == nil && p.Probability == nil && p.ExpectedCloseDate == nil
}

// Apply writes the patch onto d.
func (p DealPatch) Apply(d *Deal) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.ClientID != nil {
		d.ClientID = optionalID(*p.ClientID)
	}
	if p.Value != nil {
		d.Value = *p.Value
	}
	if p.Currency != nil {
		d.Currency = *p.Currency
	}
	if p.Stage != nil {
		d.Stage = *p.Stage
	}
	if p.Probability != nil {
		d.Probability = *p.Probability
	}
	if p.ExpectedCloseDate != nil {
		d.ExpectedCloseDate = optionalTime(*p.ExpectedCloseDate)
	}
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
