package auth

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tendant/nexus-crm/internal/config"
	"github.com/tendant/nexus-crm/pkg/domain"
)

// PasswordPolicy is the operator-configured complexity policy applied on
// signup, on top of the fixed minimum enforced by the validation layer.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// NewPasswordPolicy creates a PasswordPolicy from config.
func NewPasswordPolicy(cfg config.PasswordPolicyConfig) *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:        cfg.MinLength,
		RequireUppercase: cfg.RequireUppercase,
		RequireLowercase: cfg.RequireLowercase,
		RequireNumber:    cfg.RequireNumber,
		RequireSpecial:   cfg.RequireSpecial,
	}
}

type passwordRule struct {
	reason string
	ok     func(string) bool
}

func (p *PasswordPolicy) rules() []passwordRule {
	var rules []passwordRule
	if p.MinLength > 0 {
		min := p.MinLength
		rules = append(rules, passwordRule{
			reason: fmt.Sprintf("must be at least %d characters", min),
			ok:     func(s string) bool { return utf8.RuneCountInString(s) >= min },
		})
	}
	if p.RequireUppercase {
		rules = append(rules, passwordRule{"must contain an uppercase letter", hasRune(unicode.IsUpper)})
	}
	if p.RequireLowercase {
		rules = append(rules, passwordRule{"must contain a lowercase letter", hasRune(unicode.IsLower)})
	}
	if p.RequireNumber {
		rules = append(rules, passwordRule{"must contain a number", hasRune(unicode.IsDigit)})
	}
	if p.RequireSpecial {
		rules = append(rules, passwordRule{"must contain a special character", hasRune(isSpecial)})
	}
	return rules
}

// Check returns a *domain.ValidationError with one "password" entry per
// unmet rule, or nil.
func (p *PasswordPolicy) Check(password string) error {
	var verr domain.ValidationError
	for _, rule := range p.rules() {
		if !rule.ok(password) {
			verr.Fields = append(verr.Fields, domain.FieldError{Field: "password", Reason: rule.reason})
		}
	}
	if len(verr.Fields) == 0 {
		return nil
	}
	return &verr
}

// Describe summarizes the policy for signup forms.
func (p *PasswordPolicy) Describe() string {
	rules := p.rules()
	if len(rules) == 0 {
		return "any password"
	}
	reasons := make([]string, len(rules))
	for i, rule := range rules {
		reasons[i] = rule.reason
	}
	return "password " + strings.Join(reasons, ", ")
}

func hasRune(pred func(rune) bool) func(string) bool {
	return func(s string) bool {
		return strings.IndexFunc(s, pred) >= 0
	}
}

func isSpecial(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}
