package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the shared-counter RateLimitStore for horizontally scaled
// deployments. Each key is a sorted set of request timestamps (nanoseconds),
// trimmed to the window on every check.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Take(ctx context.Context, key string, max int, window time.Duration) (Decision, error) {
	now := time.Now()
	windowStart := now.Add(-window)
	redisKey := "ratelimit:" + key

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, redisKey)
	oldestCmd := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(countCmd.Val())
	if count >= max {
		reset := now.Add(window)
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			reset = time.Unix(0, int64(oldest[0].Score)).Add(window)
		}
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: reset.Sub(now),
			Reset:      reset,
		}, nil
	}

	pipe = s.client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed:   true,
		Remaining: max - count - 1,
		Reset:     now.Add(window),
	}, nil
}
