// Package validate turns raw request input into domain drafts and patches.
// Every rule failure is reported as a *domain.ValidationError before any
// storage call is made.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

var checker = newChecker()

func newChecker() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Number is a JSON number that also accepts a numeric string. Parsing is
// deferred so a bad value surfaces as a field error instead of a decode error.
type Number string

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number(strings.TrimSpace(s))
		return nil
	}
	if string(b) == "null" {
		*n = ""
		return nil
	}
	*n = Number(b)
	return nil
}

// Float parses the number. Infinities and NaN are rejected.
func (n Number) Float() (float64, error) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errors.New("not a finite number")
	}
	return f, nil
}

// Int parses the number, rejecting fractions.
func (n Number) Int() (int, error) {
	f, err := n.Float()
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}

// Date layouts accepted for date fields.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("invalid date")
}

// collector gathers field errors from coercion and rule checks.
type collector struct {
	fields []domain.FieldError
}

func (c *collector) add(field, reason string) {
	c.fields = append(c.fields, domain.FieldError{Field: field, Reason: reason})
}

func (c *collector) failed(field string) bool {
	for _, f := range c.fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// check runs the tag rules of rules. With partial set only the named Go
// fields are checked.
func (c *collector) check(rules any, partial ...string) {
	var err error
	if partial != nil {
		if len(partial) == 0 {
			return
		}
		err = checker.StructPartial(rules, partial...)
	} else {
		err = checker.Struct(rules)
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if !c.failed(fe.Field()) {
				c.add(fe.Field(), reason(fe))
			}
		}
	}
}

func (c *collector) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &domain.ValidationError{Fields: c.fields}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "timezone":
		return "must be a valid IANA timezone"
	case "iso4217":
		return "must be a 3-letter currency code"
	default:
		return "is invalid"
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// optionalClientID parses a client reference. Empty means no client.
func optionalClientID(c *collector, raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.add("client_id", "must be a valid id")
		return nil
	}
	return &id
}

// optionalDate parses a date field. Empty means no date.
func optionalDate(c *collector, field, raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := parseDate(raw)
	if err != nil {
		c.add(field, "must be a date (YYYY-MM-DD)")
		return nil
	}
	return &t
}

// Stage validates a stage name.
func Stage(raw string) (domain.Stage, error) {
	s, err := domain.ParseStage(strings.TrimSpace(raw))
	if err != nil {
		return "", domain.NewValidationError("stage", "must be one of: prospect, proposal, negotiation, won, lost")
	}
	return s, nil
}
