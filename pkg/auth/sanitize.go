package auth

import (
	"strings"
	"unicode"
)

// SanitizeName turns a typed display name into a single line: control
// characters are dropped and whitespace runs, line breaks included, become
// one space. Output encoding is left to the client.
func SanitizeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, name)
	return strings.Join(strings.Fields(cleaned), " ")
}
