package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/internal/httputil"
	"github.com/tendant/nexus-crm/pkg/domain"
)

type contextKey string

const (
	// PrincipalKey is the context key for the authenticated principal.
	PrincipalKey contextKey = "principal"
	// TokenKey is the context key for the raw session token.
	TokenKey contextKey = "token"
)

// TokenVerifier resolves a session token to a principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Principal, error)
}

// Auth creates middleware that validates session tokens.
// Checks Authorization header first, then falls back to cookie for web clients.
func Auth(verifier TokenVerifier, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := httputil.SessionToken(r, cookieName)
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			ctx = context.WithValue(ctx, TokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// GetPrincipal extracts the principal from the request context.
func GetPrincipal(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(*domain.Principal)
	return p, ok && p != nil
}

// GetTenantID returns the tenant of the authenticated request. The tenant is
// the signed-in user.
func GetTenantID(ctx context.Context) (uuid.UUID, bool) {
	p, ok := GetPrincipal(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return p.UserID, true
}

// GetToken extracts the raw session token from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}
