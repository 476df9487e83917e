package rollback

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/convoyops/deployctl/logging"
)

// CachePatterns are the derived-state key patterns deleted after every
// rollback, so reverted services never serve stale verification or
// certificate data.
var CachePatterns = []string{
	"verification:*",
	"certificates:*",
	"health:*",
}

// CacheInvalidator deletes rollback-sensitive cache keys.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, redisURL string) (int, error)
}

// RedisInvalidator deletes CachePatterns against the environment's redis.
type RedisInvalidator struct {
	Timeout time.Duration
}

// Invalidate scans each pattern and deletes matching keys in batches.
// Returns the number of keys deleted.
func (r *RedisInvalidator) Invalidate(ctx context.Context, redisURL string) (int, error) {
	logger := logging.ComponentLogger("cache")

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	defer client.Close()

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	deleted := 0
	for _, pattern := range CachePatterns {
		iter := client.Scan(ctx, 0, pattern, 100).Iterator()

		var batch []string
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) >= 100 {
				n, err := client.Del(ctx, batch...).Result()
				if err != nil {
					return deleted, fmt.Errorf("failed to delete keys for pattern %s: %w", pattern, err)
				}
				deleted += int(n)
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return deleted, fmt.Errorf("failed to scan pattern %s: %w", pattern, err)
		}
		if len(batch) > 0 {
			n, err := client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys for pattern %s: %w", pattern, err)
			}
			deleted += int(n)
		}

		logger.Debug().Str("pattern", pattern).Msg("Cache pattern invalidated")
	}

	logger.Info().Int("keys_deleted", deleted).Msg("Cache invalidation complete")
	return deleted, nil
}
