package statuscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eldcore/internal/hos/models"
)

const (
	keyPrefix  = "hos:status:"
	defaultTTL = 24 * time.Hour
)

// RedisCache stores one JSON projection per driver. Entries expire after the TTL and are
// rebuilt from the event log on the next read.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithTTL sets the entry lifetime. Zero keeps the default.
func WithTTL(ttl time.Duration) RedisOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisCache {
	c := &RedisCache{client: client, ttl: defaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func key(driverID models.DriverID) string {
	return keyPrefix + string(driverID)
}

// Get returns the cached projection; found is false on a miss.
func (c *RedisCache) Get(ctx context.Context, driverID models.DriverID) (models.StatusProjection, bool, error) {
	raw, err := c.client.Get(ctx, key(driverID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.StatusProjection{}, false, nil
	}
	if err != nil {
		return models.StatusProjection{}, false, fmt.Errorf("get status projection: %w", err)
	}
	var proj models.StatusProjection
	if err := json.Unmarshal(raw, &proj); err != nil {
		// An undecodable entry is treated as a miss and overwritten by the rebuild.
		return models.StatusProjection{}, false, nil
	}
	return proj, true, nil
}

func (c *RedisCache) Put(ctx context.Context, driverID models.DriverID, proj models.StatusProjection) error {
	raw, err := json.Marshal(proj)
	if err != nil {
		return fmt.Errorf("marshal status projection: %w", err)
	}
	if err := c.client.Set(ctx, key(driverID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set status projection: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, driverID models.DriverID) error {
	if err := c.client.Del(ctx, key(driverID)).Err(); err != nil {
		return fmt.Errorf("delete status projection: %w", err)
	}
	return nil
}
