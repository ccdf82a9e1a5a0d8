// Package cache provides the optional Redis backed role-set cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "roles:user:"

// RoleCache stores a user's role names between requests
type RoleCache interface {
	Get(ctx context.Context, userID uint) ([]string, bool)
	Set(ctx context.Context, userID uint, roles []string)
	Invalidate(ctx context.Context, userID uint)
	Flush(ctx context.Context)
	Ping(ctx context.Context) error
}

// RedisRoleCache keeps role sets under roles:user:<id> with a TTL.
// Cache failures are logged and treated as misses.
type RedisRoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClient parses REDIS_URL and verifies the server answers
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisRoleCache wraps an existing client
func NewRedisRoleCache(client *redis.Client, ttl time.Duration) *RedisRoleCache {
	return &RedisRoleCache{client: client, ttl: ttl}
}

func key(userID uint) string {
	return keyPrefix + strconv.FormatUint(uint64(userID), 10)
}

func (c *RedisRoleCache) Get(ctx context.Context, userID uint) ([]string, bool) {
	raw, err := c.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Role cache read failed for user %d: %v", userID, err)
		}
		return nil, false
	}
	var roles []string
	if err := json.Unmarshal(raw, &roles); err != nil {
		return nil, false
	}
	return roles, true
}

func (c *RedisRoleCache) Set(ctx context.Context, userID uint, roles []string) {
	raw, err := json.Marshal(roles)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(userID), raw, c.ttl).Err(); err != nil {
		log.Printf("Role cache write failed for user %d: %v", userID, err)
	}
}

func (c *RedisRoleCache) Invalidate(ctx context.Context, userID uint) {
	if err := c.client.Del(ctx, key(userID)).Err(); err != nil {
		log.Printf("Role cache invalidate failed for user %d: %v", userID, err)
	}
}

// Flush drops every cached role set, used when a role is renamed or deleted
func (c *RedisRoleCache) Flush(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("Role cache scan failed: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("Role cache flush failed: %v", err)
	}
}

func (c *RedisRoleCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
