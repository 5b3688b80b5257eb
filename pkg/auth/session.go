package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

// DefaultSessionTTL is the lifetime of a session token.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionConfig holds session configuration.
type SessionConfig struct {
	TTL       time.Duration
	JWTSecret []byte
	Issuer    string
}

// Token is a signed session token.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionClaims carries the principal inside the token so requests need no
// lookup to know who is calling.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

func (c *SessionClaims) principal() (*domain.Principal, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, err
	}
	return &domain.Principal{
		UserID:   id,
		Email:    c.Email,
		Name:     c.Name,
		Currency: c.Currency,
		Timezone: c.Timezone,
	}, nil
}

// SessionService issues and verifies session tokens.
type SessionService struct {
	config  SessionConfig
	revoked RevocationList
	now     func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(config SessionConfig, revoked RevocationList) *SessionService {
	if config.TTL == 0 {
		config.TTL = DefaultSessionTTL
	}
	if revoked == nil {
		revoked = NewMemoryRevocationList()
	}
	return &SessionService{config: config, revoked: revoked, now: time.Now}
}

// TTL returns the session lifetime.
func (s *SessionService) TTL() time.Duration {
	return s.config.TTL
}

// Issue signs a token for p.
func (s *SessionService) Issue(p *domain.Principal) (Token, error) {
	now := s.now()
	expiresAt := now.Add(s.config.TTL)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    s.config.Issuer,
			ID:        uuid.NewString(),
		},
		Email:    p.Email,
		Name:     p.Name,
		Currency: p.Currency,
		Timezone: p.Timezone,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.JWTSecret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, expiry, issuer and revocation and returns the
// principal. Every rejection is domain.ErrUnauthorized.
func (s *SessionService) Verify(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.parse(ctx, token)
	if err != nil {
		return nil, err
	}
	p, err := claims.principal()
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return p, nil
}

// RefreshPrincipal re-signs token with the patched profile without asking
// for credentials again. The old token is revoked.
func (s *SessionService) RefreshPrincipal(ctx context.Context, token string, patch domain.ProfilePatch) (Token, *domain.Principal, error) {
	claims, err := s.parse(ctx, token)
	if err != nil {
		return Token{}, nil, err
	}
	p, err := claims.principal()
	if err != nil {
		return Token{}, nil, domain.ErrUnauthorized
	}

	updated := p.Apply(patch)
	fresh, err := s.Issue(&updated)
	if err != nil {
		return Token{}, nil, err
	}
	if err := s.revoke(ctx, claims); err != nil {
		return Token{}, nil, err
	}
	return fresh, &updated, nil
}

// Revoke invalidates token until it would have expired anyway.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(ctx, token)
	if err != nil {
		return err
	}
	return s.revoke(ctx, claims)
}

func (s *SessionService) revoke(ctx context.Context, claims *SessionClaims) error {
	return s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *SessionService) parse(ctx context.Context, token string) (*SessionClaims, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.config.JWTSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.ID == "" {
		return nil, domain.ErrUnauthorized
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
