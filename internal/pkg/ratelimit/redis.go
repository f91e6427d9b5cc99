package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/cache"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisLimiter is a fixed-window counter shared across instances: INCR on a
// per-identifier key with the window as TTL. Coarser than the sliding window
// but globally enforced, which is what horizontal scaling needs.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
}

func NewRedisLimiter(window time.Duration, max int) *RedisLimiter {
	return &RedisLimiter{
		client: cache.GetClient(),
		window: window,
		max:    max,
	}
}

func (l *RedisLimiter) Allow(identifier string) bool {
	ctx := context.Background()
	key := fmt.Sprintf("%s%s:%d", redisKeyPrefix, identifier, time.Now().Unix()/int64(l.window.Seconds()))

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		// Fail open: an unavailable limiter store must not take the
		// webhook endpoint down with it.
		log.Errorf("[RateLimit] redis incr failed: %v", err)
		return true
	}
	if count == 1 {
		_ = l.client.Expire(ctx, key, l.window).Err()
	}
	return count <= int64(l.max)
}
