package validate

import (
	"fmt"
	"strings"

	"github.com/tendant/nexus-crm/pkg/domain"
)

const maxPasswordBytes = 72

// SignupInput is the request body for account registration.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

// Signup validates a registration. The returned copy has the email trimmed
// and lowercased and the name trimmed; the password is left untouched.
func Signup(in SignupInput) (SignupInput, error) {
	out := SignupInput{
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: in.Password,
		Name:     strings.TrimSpace(in.Name),
	}
	c := &collector{}
	c.check(out)
	// bcrypt hashes at most 72 bytes; max above counts characters.
	if len(out.Password) > maxPasswordBytes && !c.failed("password") {
		c.add("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	if err := c.err(); err != nil {
		return SignupInput{}, err
	}
	return out, nil
}

// SettingsInput is the request body for updating profile settings.
type SettingsInput struct {
	Name     *string `json:"name"`
	Currency *string `json:"currency"`
	Timezone *string `json:"timezone"`
}

type settingsRules struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Currency string `json:"currency" validate:"iso4217"`
	Timezone string `json:"timezone" validate:"required,timezone"`
}

// Settings validates a profile update. Currency codes are uppercased.
func Settings(in SettingsInput) (domain.ProfilePatch, error) {
	r := settingsRules{
		Name:     trimmed(in.Name),
		Currency: strings.ToUpper(trimmed(in.Currency)),
		Timezone: trimmed(in.Timezone),
	}
	present := []string{}
	if in.Name != nil {
		present = append(present, "Name")
	}
	if in.Currency != nil {
		present = append(present, "Currency")
	}
	if in.Timezone != nil {
		present = append(present, "Timezone")
	}

	c := &collector{}
	c.check(r, present...)
	if err := c.err(); err != nil {
		return domain.ProfilePatch{}, err
	}

	var p domain.ProfilePatch
	if in.Name != nil {
		p.Name = &r.Name
	}
	if in.Currency != nil {
		p.Currency = &r.Currency
	}
	if in.Timezone != nil {
		p.Timezone = &r.Timezone
	}
	return p, nil
}
