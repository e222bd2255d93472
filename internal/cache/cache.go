// Package cache provides a Redis-backed cache for derived group data.
//
// Balances and settle-up suggestions are recomputed from scratch on
// every read; groups with long expense histories make that read-heavy
// path worth caching. Writes invalidate the group's keys eagerly and a
// TTL bounds staleness as a backstop.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is absent.
var ErrMiss = errors.New("cache miss")

// Cache wraps a Redis client with JSON serialization.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// NewWithClient wraps an existing client. Used by tests with miniredis.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Close releases the underlying connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// GetJSON loads the value at key into target. Returns ErrMiss when the
// key does not exist.
func (c *Cache) GetJSON(ctx context.Context, key string, target any) error {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("failed to get %q: %w", key, err)
	}
	return json.Unmarshal(payload, target)
}

// SetJSON stores value at key with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %q: %w", key, err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// InvalidateGroup drops all derived keys for a group.
func (c *Cache) InvalidateGroup(ctx context.Context, groupID string) error {
	keys := []string{BalancesKey(groupID), SettleUpKey(groupID)}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate group %s: %w", groupID, err)
	}
	return nil
}

// BalancesKey is the cache key for a group's member balances.
func BalancesKey(groupID string) string {
	return "group:" + groupID + ":balances"
}

// SettleUpKey is the cache key for a group's settle-up suggestions.
func SettleUpKey(groupID string) string {
	return "group:" + groupID + ":settleup"
}
