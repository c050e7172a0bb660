// Package redisrl implements the rate limiter port on Redis with a
// fixed-window counter, so the limit holds across multiple instances.
package redisrl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"classhub/internal/authz"
)

// RateLimiter counts requests per key in fixed windows backed by Redis.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

var allowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// NewRateLimiter connects to Redis at addr. limit is the number of requests
// allowed per key per window.
func NewRateLimiter(addr, password string, db, limit int, window time.Duration) (*RateLimiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if window <= 0 {
		window = time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RateLimiter{client: client, limit: limit, window: window}, nil
}

// Allow increments the key's window counter and reports whether the request
// fits the limit.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (authz.RateLimitResult, error) {
	result, err := allowScript.Run(ctx, rl.client, []string{"ratelimit:" + key}, rl.window.Milliseconds()).Result()
	if err != nil {
		return authz.RateLimitResult{}, fmt.Errorf("redis rate limit check: %w", err)
	}

	values, ok := result.([]any)
	if !ok || len(values) < 2 {
		return authz.RateLimitResult{}, errors.New("unexpected redis rate limit response")
	}
	current, ok := values[0].(int64)
	if !ok {
		return authz.RateLimitResult{}, errors.New("invalid redis counter response")
	}
	ttlMillis, _ := values[1].(int64)

	if current <= int64(rl.limit) {
		return authz.RateLimitResult{Allowed: true}, nil
	}

	retryAfter := 1
	if ttlMillis > 0 {
		retryAfter = int((time.Duration(ttlMillis) * time.Millisecond).Round(time.Second).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
	}
	return authz.RateLimitResult{Allowed: false, RetryAfter: retryAfter}, nil
}

// Close releases the Redis connection.
func (rl *RateLimiter) Close() error {
	return rl.client.Close()
}
