package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStage_Valid(t *testing.T) {
	tests := []struct {
		stage    Stage
		valid    bool
		terminal bool
	}{
		{StageProspect, true, false},
		{StageProposal, true, false},
		{StageNegotiation, true, false},
		{StageWon, true, true},
		{StageLost, true, true},
		{Stage("closed"), false, false},
		{Stage(""), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			if got := tt.stage.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.stage.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestParseStage(t *testing.T) {
	if _, err := ParseStage("archived"); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("ParseStage(archived) error = %v, want ErrInvalidStage", err)
	}
	s, err := ParseStage("won")
	if err != nil || s != StageWon {
		t.Errorf("ParseStage(won) = %v, %v", s, err)
	}
}

func TestNotFoundErrors_WrapBase(t *testing.T) {
	for _, err := range []error{ErrUserNotFound, ErrClientNotFound, ErrDealNotFound, ErrTaskNotFound, ErrNoteNotFound} {
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%v does not wrap ErrNotFound", err)
		}
	}
}

func TestDealPatch_Apply(t *testing.T) {
	clientID := uuid.New()
	closeDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	deal := &Deal{
		Title:             "Website Redesign",
		ClientID:          &clientID,
		Stage:             StageProspect,
		ExpectedCloseDate: &closeDate,
	}

	stage := StageProposal
	nilID := uuid.Nil
	zero := time.Time{}
	DealPatch{Stage: &stage, ClientID: &nilID, ExpectedCloseDate: &zero}.Apply(deal)

	if deal.Stage != StageProposal {
		t.Errorf("Stage = %v, want %v", deal.Stage, StageProposal)
	}
	if deal.ClientID != nil {
		t.Errorf("ClientID = %v, want nil", deal.ClientID)
	}
	if deal.ExpectedCloseDate != nil {
		t.Errorf("ExpectedCloseDate = %v, want nil", deal.ExpectedCloseDate)
	}
	if deal.Title != "Website Redesign" {
		t.Errorf("Title changed to %q", deal.Title)
	}
}

func TestPatches_IsEmpty(t *testing.T) {
	if !(ClientPatch{}).IsEmpty() || !(DealPatch{}).IsEmpty() || !(TaskPatch{}).IsEmpty() || !(ProfilePatch{}).IsEmpty() {
		t.Error("zero patches should be empty")
	}
	name := "x"
	if (ClientPatch{Name: &name}).IsEmpty() {
		t.Error("ClientPatch with name should not be empty")
	}
}

func TestPrincipal_Apply(t *testing.T) {
	p := Principal{UserID: uuid.New(), Name: "Demo", Currency: "USD", Timezone: "UTC"}
	eur := "EUR"
	got := p.Apply(ProfilePatch{Currency: &eur})

	if got.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", got.Currency)
	}
	if got.Name != "Demo" || got.Timezone != "UTC" || got.UserID != p.UserID {
		t.Errorf("unpatched fields changed: %+v", got)
	}
	if p.Currency != "USD" {
		t.Error("Apply mutated the receiver")
	}
}

func TestValidationError(t *testing.T) {
	err := error(NewValidationError("website", "must be a valid URL"))

	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatal("AsValidationError returned false")
	}
	if !ve.Has("website") || ve.Has("name") {
		t.Errorf("Has() mismatch for %v", ve.Fields)
	}
	if ve.Error() != "validation failed: website: must be a valid URL" {
		t.Errorf("Error() = %q", ve.Error())
	}
}
