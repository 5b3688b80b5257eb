package httputil

import (
	"net/http"
	"strings"
	"time"
)

// CookieConfig holds session cookie configuration.
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool // Set to true in production (HTTPS)
	SameSite http.SameSite
}

// DefaultCookieConfig returns default cookie configuration.
func DefaultCookieConfig(name string) CookieConfig {
	return CookieConfig{
		Name:     name,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}

// SetSessionCookie stores the session token in an HttpOnly cookie that
// expires with the token.
func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

// SessionToken extracts the session token, checking the Authorization header
// first and falling back to the cookie for browser clients.
func SessionToken(r *http.Request, cookieName string) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1], true
		}
	}
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
