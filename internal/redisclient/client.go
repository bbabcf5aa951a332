package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// ClaimIdempotencyKey atomically claims an idempotency key for the given
// TTL. Returns false if another in-flight or recent submission already
// holds it. This is the fast path; the unique column on orders stays
// authoritative.
func (c *Client) ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("idempotency:%s", key), "1", ttl).Result()
}

// ReleaseIdempotencyKey drops a claim after a failed checkout so the
// client can retry with the same key.
func (c *Client) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("idempotency:%s", key)).Err()
}

// CacheMenuSnapshot stores a serialized menu read model with TTL.
func (c *Client) CacheMenuSnapshot(ctx context.Context, menuID int64, snapshot interface{}, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal menu snapshot: %w", err)
	}
	return c.rdb.Set(ctx, menuKey(menuID), data, ttl).Err()
}

// GetMenuSnapshot loads a cached menu read model into dest. Returns false
// on a cache miss.
func (c *Client) GetMenuSnapshot(ctx context.Context, menuID int64, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, menuKey(menuID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal menu snapshot: %w", err)
	}
	return true, nil
}

// InvalidateMenuSnapshot drops the cached read model after catalog edits.
func (c *Client) InvalidateMenuSnapshot(ctx context.Context, menuID int64) error {
	return c.rdb.Del(ctx, menuKey(menuID)).Err()
}

func menuKey(menuID int64) string {
	return fmt.Sprintf("menu:%d", menuID)
}
