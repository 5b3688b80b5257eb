package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestRedisRevocationList(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis revocation test - set TEST_REDIS_ADDR to run")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	l := NewRedisRevocationList(client)
	id := uuid.NewString()

	if ok, err := l.IsRevoked(ctx, id); err != nil || ok {
		t.Fatalf("IsRevoked before revoke = %v, %v", ok, err)
	}
	if err := l.Revoke(ctx, id, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if ok, err := l.IsRevoked(ctx, id); err != nil || !ok {
		t.Fatalf("IsRevoked after revoke = %v, %v", ok, err)
	}

	ttl, err := client.TTL(ctx, revokedKeyPrefix+id).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, %v", ttl, err)
	}
}
