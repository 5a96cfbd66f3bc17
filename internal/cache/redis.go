// Package cache holds the Redis-backed song list cache and rate limiter.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PoolOptions sizes the Redis connection pool.
type PoolOptions struct {
	Size         int
	MinIdle      int
	Timeout      time.Duration
	MaxIdleTime  time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultPoolOptions returns pool settings suitable for one API instance.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		Size:         10,
		MinIdle:      2,
		Timeout:      4 * time.Second,
		MaxIdleTime:  5 * time.Minute,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Cache wraps a Redis client with playlist-specific operations.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and pings it.
func New(ctx context.Context, redisURL string, pool PoolOptions) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if pool.Size > 0 {
		opt.PoolSize = pool.Size
	}
	opt.MinIdleConns = pool.MinIdle
	opt.PoolTimeout = pool.Timeout
	opt.ConnMaxIdleTime = pool.MaxIdleTime
	opt.DialTimeout = pool.DialTimeout
	opt.ReadTimeout = pool.ReadTimeout
	opt.WriteTimeout = pool.WriteTimeout

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying client. The activity stream shares it.
func (c *Cache) Client() *redis.Client {
	return c.client
}
