package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps redis.Client but fails safe by swallowing connectivity errors:
// Redis being down degrades the feed to store reads, never to request errors.
type Client struct {
	client *redis.Client
}

// New wraps an already connected redis client. A nil client is valid and
// behaves as an always-missing cache, which keeps tests free of Redis.
func New(rdb *redis.Client) *Client {
	return &Client{client: rdb}
}

// Get returns the value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		// fail safe: behave like cache miss
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	_ = c.client.Set(ctx, key, value, ttl).Err()
	return nil
}

// Delete removes a key, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	_ = c.client.Del(ctx, key).Err()
	return nil
}
