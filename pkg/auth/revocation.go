package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList remembers logged-out token ids until the tokens expire.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocationList is a RevocationList for a single replica.
type MemoryRevocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationList creates an empty in-process revocation list.
func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{entries: make(map[string]time.Time), now: time.Now}
}

// Revoke records tokenID until the given time. Expired entries are pruned.
func (l *MemoryRevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, exp := range l.entries {
		if !exp.After(now) {
			delete(l.entries, id)
		}
	}
	if until.After(now) {
		l.entries[tokenID] = until
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked and has not yet expired.
func (l *MemoryRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	exp, ok := l.entries[tokenID]
	return ok && exp.After(l.now()), nil
}

const revokedKeyPrefix = "nexus:revoked:"

// RedisRevocationList shares revocations between replicas. Keys expire with
// the tokens they name.
type RedisRevocationList struct {
	client redis.UniversalClient
}

// NewRedisRevocationList constructs a Redis-backed revocation list.
func NewRedisRevocationList(client redis.UniversalClient) *RedisRevocationList {
	return &RedisRevocationList{client: client}
}

// Revoke stores tokenID with a TTL ending at until.
func (l *RedisRevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID is present.
func (l *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}
