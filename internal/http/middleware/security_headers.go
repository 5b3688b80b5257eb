package middleware

import (
	"fmt"
	"net/http"

	"github.com/tendant/nexus-crm/internal/config"
)

// SecurityHeaders creates middleware that applies OWASP-recommended security
// headers. Empty values are skipped.
func SecurityHeaders(cfg config.SecurityHeadersConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	headers := map[string]string{
		"Content-Security-Policy": cfg.CSP,
		"X-Frame-Options":         cfg.FrameOptions,
		"X-Content-Type-Options":  cfg.ContentTypeOptions,
		"X-XSS-Protection":        cfg.XSSProtection,
		"Referrer-Policy":         cfg.ReferrerPolicy,
		"Permissions-Policy":      cfg.PermissionsPolicy,
	}
	if cfg.HSTSMaxAge > 0 {
		headers["Strict-Transport-Security"] = fmt.Sprintf("max-age=%d; includeSubDomains", cfg.HSTSMaxAge)
	}
	// Tenant data must not land in shared caches.
	if cfg.NoStore {
		headers["Cache-Control"] = "no-store"
	}
	for k, v := range headers {
		if v == "" {
			delete(headers, k)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range headers {
				w.Header().Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}
