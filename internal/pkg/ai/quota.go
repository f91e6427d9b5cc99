package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/cache"
)

const quotaKeyPrefix = "ai:hints:"

// QuotaKey returns the Redis key holding a user's hint count for one UTC day.
func QuotaKey(userID uint, day time.Time) string {
	return fmt.Sprintf("%s%s:%d", quotaKeyPrefix, day.UTC().Format("2006-01-02"), userID)
}

// ConsumeHint counts one hint against the user's daily quota. It returns the
// remaining budget and whether this hint is still within the limit. The
// counter key expires after two days so stale days clean themselves up.
func ConsumeHint(ctx context.Context, userID uint, limit int) (remaining int, allowed bool, err error) {
	rdb := cache.GetClient()
	key := QuotaKey(userID, time.Now())

	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, false, fmt.Errorf("failed to update hint quota: %w", err)
	}
	if count == 1 {
		if err := rdb.Expire(ctx, key, 48*time.Hour).Err(); err != nil {
			return 0, false, fmt.Errorf("failed to set hint quota expiry: %w", err)
		}
	}

	if count > int64(limit) {
		return 0, false, nil
	}
	return limit - int(count), true, nil
}
