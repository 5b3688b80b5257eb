package auth

import (
	"strings"
)

// Throwaway mail providers rejected when BlockDisposableEmail is set.
// Subdomains match too.
var disposableDomains = map[string]struct{}{
	"tempmail.com":      {},
	"10minutemail.com":  {},
	"guerrillamail.com": {},
	"mailinator.com":    {},
	"throwaway.email":   {},
	"yopmail.com":       {},
	"trashmail.com":     {},
}

// NormalizeEmail lowercases and trims an address. Accounts are looked up by
// the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsDisposableEmail reports whether the address belongs to a throwaway
// mail provider.
func IsDisposableEmail(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	domain := NormalizeEmail(email[at+1:])
	for domain != "" {
		if _, ok := disposableDomains[domain]; ok {
			return true
		}
		_, parent, found := strings.Cut(domain, ".")
		if !found {
			break
		}
		domain = parent
	}
	return false
}
