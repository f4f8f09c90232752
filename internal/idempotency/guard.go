// README: Redis SETNX guard so a redelivered trip.completed event is priced at most once.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	processedKeyPrefix = "pricing:trip:%d:processed"
	defaultTTL         = 24 * time.Hour
)

type Guard struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewGuard(redis *redis.Client, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Guard{redis: redis, ttl: ttl}
}

// Acquire claims tripID. It returns false if the trip was already claimed within ttl.
func (g *Guard) Acquire(ctx context.Context, tripID int64) (bool, error) {
	return g.redis.SetNX(ctx, processedKey(tripID), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
}

// Release drops the claim so a failed run can be retried.
func (g *Guard) Release(ctx context.Context, tripID int64) error {
	return g.redis.Del(ctx, processedKey(tripID)).Err()
}

func processedKey(tripID int64) string {
	return fmt.Sprintf(processedKeyPrefix, tripID)
}
