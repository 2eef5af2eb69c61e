package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"flightmate/config"
)

const (
	maxRetries = 3
	retryDelay = 500 * time.Millisecond
)

// Client wraps Redis behind a fail-soft get/set surface. Every operation
// retries a few times and then degrades to a miss / dropped write, so a
// Redis outage slows the service down but never takes it out.
type Client struct {
	rdb *redis.Client
}

func New(cfg *config.Config) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUser,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("⚠️  Redis ping failed: %v — caching degraded until it recovers", err)
	} else {
		log.Printf("✅ Redis connected at %s", cfg.RedisAddr)
	}

	return &Client{rdb: rdb}
}

// GetWithRetry returns (value, true) on a hit. A miss and an unavailable
// Redis both come back as ("", false); callers recompute either way.
func (c *Client) GetWithRetry(ctx context.Context, key string) (string, bool) {
	val, ok := withRetry(func() (string, error) {
		v, err := c.rdb.Get(ctx, key).Result()
		if err == redis.Nil {
			return "", nil
		}
		return v, err
	}, maxRetries, retryDelay)
	if !ok {
		log.Printf("⚠️  Redis GET %s failed after %d attempts", key, maxRetries)
		return "", false
	}
	return val, val != ""
}

// SetWithRetry stores value under key with the given TTL. Failures are
// logged and dropped; caching is an optimization, not a correctness
// boundary.
func (c *Client) SetWithRetry(ctx context.Context, key, value string, ttl time.Duration) {
	_, ok := withRetry(func() (struct{}, error) {
		return struct{}{}, c.rdb.Set(ctx, key, value, ttl).Err()
	}, maxRetries, retryDelay)
	if !ok {
		log.Printf("⚠️  Redis SET %s failed after %d attempts — write dropped", key, maxRetries)
	}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// withRetry runs fn up to maxRetries times with a linearly increasing delay
// between attempts. ok is false only when every attempt failed.
func withRetry[T any](fn func() (T, error), maxRetries int, delay time.Duration) (T, bool) {
	var zero T
	for i := 0; i < maxRetries; i++ {
		v, err := fn()
		if err == nil {
			return v, true
		}
		if i < maxRetries-1 {
			time.Sleep(delay * time.Duration(i+1))
		}
	}
	return zero, false
}
