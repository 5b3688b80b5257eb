package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

func newSessionService() *SessionService {
	return NewSessionService(SessionConfig{
		TTL:       time.Hour,
		JWTSecret: []byte("test-secret"),
		Issuer:    "nexus-crm-test",
	}, NewMemoryRevocationList())
}

func testPrincipal() *domain.Principal {
	return &domain.Principal{
		UserID:   uuid.New(),
		Email:    "jane@example.com",
		Name:     "Jane",
		Currency: "USD",
		Timezone: "UTC",
	}
}

func TestSessionService_IssueAndVerify(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService()
	p := testPrincipal()

	tok, err := svc.Issue(p)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := svc.Verify(ctx, tok.Value)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if *got != *p {
		t.Errorf("Verify() = %+v, want %+v", got, p)
	}
}

func TestSessionService_RejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService()
	tok, err := svc.Issue(testPrincipal())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewSessionService(SessionConfig{TTL: time.Hour, JWTSecret: []byte("other-secret"), Issuer: "nexus-crm-test"}, nil)
	forged, _ := other.Issue(testPrincipal())

	wrongIssuer := NewSessionService(SessionConfig{TTL: time.Hour, JWTSecret: []byte("test-secret"), Issuer: "someone-else"}, nil)
	foreign, _ := wrongIssuer.Issue(testPrincipal())

	expired := newSessionService()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _ := expired.Issue(testPrincipal())

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "tampered", token: tok.Value + "x"},
		{name: "wrong secret", token: forged.Value},
		{name: "wrong issuer", token: foreign.Value},
		{name: "expired", token: stale.Value},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Verify(ctx, tt.token); !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("err = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestSessionService_Revoke(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService()
	tok, _ := svc.Issue(testPrincipal())

	if err := svc.Revoke(ctx, tok.Value); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := svc.Verify(ctx, tok.Value); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("revoked token verified: %v", err)
	}
}

func TestSessionService_RefreshPrincipal(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService()
	p := testPrincipal()
	old, _ := svc.Issue(p)

	currency := "EUR"
	fresh, updated, err := svc.RefreshPrincipal(ctx, old.Value, domain.ProfilePatch{Currency: &currency})
	if err != nil {
		t.Fatalf("RefreshPrincipal: %v", err)
	}
	if updated.Currency != "EUR" || updated.Name != p.Name || updated.UserID != p.UserID {
		t.Errorf("updated principal = %+v", updated)
	}

	got, err := svc.Verify(ctx, fresh.Value)
	if err != nil {
		t.Fatalf("Verify(fresh): %v", err)
	}
	if got.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", got.Currency)
	}

	if _, err := svc.Verify(ctx, old.Value); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("old token still valid after refresh: %v", err)
	}
}

func TestMemoryRevocationList_Expiry(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryRevocationList()
	now := time.Now()
	l.now = func() time.Time { return now }

	_ = l.Revoke(ctx, "a", now.Add(time.Minute))
	_ = l.Revoke(ctx, "b", now.Add(-time.Minute))

	if ok, _ := l.IsRevoked(ctx, "a"); !ok {
		t.Error("a should be revoked")
	}
	if ok, _ := l.IsRevoked(ctx, "b"); ok {
		t.Error("b expired before it was revoked")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := l.IsRevoked(ctx, "a"); ok {
		t.Error("a should have expired")
	}
}
