// README: Idempotency guard tests (set PRICING_TEST_REDIS_ADDR for redis).
package idempotency

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestProcessedKey(t *testing.T) {
	if got := processedKey(42); got != "pricing:trip:42:processed" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestNewGuard_DefaultTTL(t *testing.T) {
	g := NewGuard(nil, 0)
	if g.ttl != defaultTTL {
		t.Fatalf("expected default ttl, got %s", g.ttl)
	}
}

func TestGuard_AcquireRelease(t *testing.T) {
	addr := os.Getenv("PRICING_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PRICING_TEST_REDIS_ADDR not set; skipping redis guard test")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	g := NewGuard(client, time.Minute)
	tripID := time.Now().UnixNano()
	t.Cleanup(func() { _ = g.Release(ctx, tripID) })

	ok, err := g.Acquire(ctx, tripID)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = g.Acquire(ctx, tripID)
	if err != nil || ok {
		t.Fatalf("second acquire should be refused: ok=%v err=%v", ok, err)
	}
	if err := g.Release(ctx, tripID); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = g.Acquire(ctx, tripID)
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}
