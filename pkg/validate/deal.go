package validate

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

// DealInput is the request body for creating or updating a deal.
type DealInput struct {
	Title             *string `json:"title"`
	ClientID          *string `json:"client_id"`
	Value             *Number `json:"value"`
	Currency          *string `json:"currency"`
	Stage             *string `json:"stage"`
	Probability       *Number `json:"probability"`
	ExpectedCloseDate *string `json:"expected_close_date"`
}

type dealRules struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Value       float64 `json:"value" validate:"gte=0,lte=999999999999.99"`
	Currency    string  `json:"currency" validate:"iso4217"`
	Stage       string  `json:"stage" validate:"oneof=prospect proposal negotiation won lost"`
	Probability int     `json:"probability" validate:"gte=0,lte=100"`
}

// coerce parses the numeric fields, recording failures on c.
func (in DealInput) coerce(c *collector) (value float64, probability int) {
	if in.Value != nil && *in.Value != "" {
		v, err := in.Value.Float()
		if err != nil {
			c.add("value", "must be a number")
		}
		value = v
	}
	if in.Probability != nil && *in.Probability != "" {
		p, err := in.Probability.Int()
		if err != nil {
			c.add("probability", "must be a whole number")
		}
		probability = p
	}
	return value, probability
}

// DealCreate validates a new deal. The currency falls back to
// defaultCurrency, then USD; the stage defaults to prospect.
func DealCreate(in DealInput, defaultCurrency string) (*domain.Deal, error) {
	c := &collector{}
	value, probability := in.coerce(c)
	r := dealRules{
		Title:       trimmed(in.Title),
		Value:       value,
		Currency:    strings.ToUpper(trimmed(in.Currency)),
		Stage:       trimmed(in.Stage),
		Probability: probability,
	}
	if r.Currency == "" {
		r.Currency = defaultCurrency
	}
	if r.Currency == "" {
		r.Currency = domain.DefaultCurrency
	}
	if r.Stage == "" {
		r.Stage = string(domain.StageProspect)
	}
	clientID := optionalClientID(c, trimmed(in.ClientID))
	closeDate := optionalDate(c, "expected_close_date", trimmed(in.ExpectedCloseDate))

	c.check(r)
	if err := c.err(); err != nil {
		return nil, err
	}
	return &domain.Deal{
		ClientID:          clientID,
		Title:             r.Title,
		Value:             r.Value,
		Currency:          r.Currency,
		Stage:             domain.Stage(r.Stage),
		Probability:       r.Probability,
		ExpectedCloseDate: closeDate,
	}, nil
}

// DealUpdate validates the fields present in a partial update. An empty
// client_id detaches the deal and an empty expected_close_date clears it;
// an empty value or probability is ignored.
func DealUpdate(in DealInput) (domain.DealPatch, error) {
	// null or "" leaves the number unchanged.
	if in.Value != nil && *in.Value == "" {
		in.Value = nil
	}
	if in.Probability != nil && *in.Probability == "" {
		in.Probability = nil
	}

	c := &collector{}
	value, probability := in.coerce(c)
	r := dealRules{
		Title:       trimmed(in.Title),
		Value:       value,
		Currency:    strings.ToUpper(trimmed(in.Currency)),
		Stage:       trimmed(in.Stage),
		Probability: probability,
	}

	present := []string{}
	if in.Title != nil {
		present = append(present, "Title")
	}
	if in.Value != nil && !c.failed("value") {
		present = append(present, "Value")
	}
	if in.Currency != nil {
		present = append(present, "Currency")
	}
	if in.Stage != nil {
		present = append(present, "Stage")
	}
	if in.Probability != nil && !c.failed("probability") {
		present = append(present, "Probability")
	}

	var p domain.DealPatch
	if in.ClientID != nil {
		id := optionalClientID(c, trimmed(in.ClientID))
		if id == nil {
			id = new(uuid.UUID)
		}
		p.ClientID = id
	}
	if in.ExpectedCloseDate != nil {
		t := optionalDate(c, "expected_close_date", trimmed(in.ExpectedCloseDate))
		if t == nil {
			t = new(time.Time)
		}
		p.ExpectedCloseDate = t
	}

	c.check(r, present...)
	if err := c.err(); err != nil {
		return domain.DealPatch{}, err
	}

	if in.Title != nil {
		p.Title = &r.Title
	}
	if in.Value != nil {
		p.Value = &r.Value
	}
	if in.Currency != nil {
		p.Currency = &r.Currency
	}
	if in.Stage != nil {
		stage := domain.Stage(r.Stage)
		p.Stage = &stage
	}
	if in.Probability != nil {
		p.Probability = &r.Probability
	}
	return p, nil
}
