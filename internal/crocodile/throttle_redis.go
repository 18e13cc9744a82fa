package crocodile

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const hintKeyPrefix = "crocodile:hint:"

// RedisThrottle shares hint cadence between bot replicas. Expiry is handled
// by the Redis key TTL, so the now argument is only stored for inspection.
type RedisThrottle struct {
	client redis.UniversalClient
	window time.Duration
}

func NewRedisThrottle(client redis.UniversalClient, window time.Duration) *RedisThrottle {
	if window <= 0 {
		window = HintCooldown
	}
	return &RedisThrottle{client: client, window: window}
}

func (t *RedisThrottle) Allow(ctx context.Context, chatID int64, now time.Time) (bool, error) {
	ok, err := t.client.SetNX(ctx, hintKey(chatID), now.UnixMilli(), t.window).Result()
	if err != nil {
		return false, fmt.Errorf("hint throttle: %w", err)
	}
	return ok, nil
}

func hintKey(chatID int64) string {
	return fmt.Sprintf("%s%d", hintKeyPrefix, chatID)
}
