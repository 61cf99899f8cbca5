// Package cache provides a best-effort read-through cache for the
// userId → customerId resolution, the hottest lookup this service serves.
// Cache failures degrade to the directory; they never fail a request.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const customerIDKeyPrefix = "customer:uid:"

// ResolutionCache maps user ids to customer ids in Redis.
type ResolutionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResolutionCache(client *redis.Client, ttl time.Duration) *ResolutionCache {
	return &ResolutionCache{client: client, ttl: ttl}
}

// Get returns the cached customer id for a user, or ok=false on miss.
func (c *ResolutionCache) Get(ctx context.Context, userID int64) (int64, bool, error) {
	key := customerIDKeyPrefix + strconv.FormatInt(userID, 10)
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	customerID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// A corrupt entry is treated as a miss and rewritten by the caller.
		return 0, false, nil
	}
	return customerID, true, nil
}

// Set records the mapping with the configured TTL.
func (c *ResolutionCache) Set(ctx context.Context, userID, customerID int64) error {
	key := customerIDKeyPrefix + strconv.FormatInt(userID, 10)
	return c.client.Set(ctx, key, strconv.FormatInt(customerID, 10), c.ttl).Err()
}
