package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "dealroom/pkg/domain"
)

const viewKeyPrefix = "listing:views:"

// RedisViewCounter counts listing views with INCR. Counts are best-effort.
type RedisViewCounter struct {
	client *redis.Client
}

func NewRedisViewCounter(client *redis.Client) *RedisViewCounter {
	return &RedisViewCounter{client: client}
}

func (c *RedisViewCounter) Increment(ctx context.Context, listingID id.ListingID) error {
	if err := c.client.Incr(ctx, viewKeyPrefix+listingID.String()).Err(); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// Count returns the live counter; a missing key is zero.
func (c *RedisViewCounter) Count(ctx context.Context, listingID id.ListingID) (int64, error) {
	n, err := c.client.Get(ctx, viewKeyPrefix+listingID.String()).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read views: %w", err)
	}
	return n, nil
}
