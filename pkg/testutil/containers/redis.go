//go:build integration

package containers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const (
	redisImage = "redis:7.4-alpine"
	// statusKeys matches the live status cache entries.
	statusKeys = "hos:status:*"
)

// RedisContainer backs the live status cache in integration suites.
type RedisContainer struct {
	Container testcontainers.Container
	Addr      string
	Client    *redis.Client
}

// NewRedisContainer starts Redis and returns it once it answers PING.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, redisImage)
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	client, addr, err := connectRedis(ctx, container)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("redis container: %v", err)
	}

	// Shared through the Manager; Ryuk removes the container when the run ends.
	return &RedisContainer{Container: container, Addr: addr, Client: client}
}

func connectRedis(ctx context.Context, container *tcredis.RedisContainer) (*redis.Client, string, error) {
	addr, err := container.ConnectionString(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("connection string: %w", err)
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", addr, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, "", fmt.Errorf("ping: %w", err)
	}
	return client, addr, nil
}

// CachedDrivers lists the drivers that currently have a cached projection, in no particular order.
func (r *RedisContainer) CachedDrivers(ctx context.Context) ([]string, error) {
	var drivers []string
	iter := r.Client.Scan(ctx, 0, statusKeys, 100).Iterator()
	for iter.Next(ctx) {
		drivers = append(drivers, strings.TrimPrefix(iter.Val(), strings.TrimSuffix(statusKeys, "*")))
	}
	return drivers, iter.Err()
}

// EvictStatuses deletes every cached projection so each test starts from a cold cache.
func (r *RedisContainer) EvictStatuses(ctx context.Context) error {
	iter := r.Client.Scan(ctx, 0, statusKeys, 100).Iterator()
	for iter.Next(ctx) {
		if err := r.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
