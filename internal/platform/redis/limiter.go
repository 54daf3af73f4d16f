// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis

import (
	stdctx "context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces attempt counters in a shared Redis.
const keyPrefix = "gatekeeper:attempts:"

// WindowLimiter counts attempts per key in fixed windows shared across replicas.
type WindowLimiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
}

// NewWindowLimiter allows limit attempts per key in each window.
func NewWindowLimiter(client redis.Cmdable, limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{client: client, limit: int64(limit), window: window}
}

// Allow records one attempt for key.
//
// It returns false and the time left in the current window once the limit is
// exceeded. The window starts at the first attempt.
func (limiter *WindowLimiter) Allow(context stdctx.Context, key string) (bool, time.Duration, error) {
	redisKey := keyPrefix + key

	count, err := limiter.client.Incr(context, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis: incr attempt counter: %w", err)
	}

	if count == 1 {
		if err := limiter.client.Expire(context, redisKey, limiter.window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis: set attempt window: %w", err)
		}
	}

	if count <= limiter.limit {
		return true, 0, nil
	}

	remaining, err := limiter.client.TTL(context, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis: read attempt window: %w", err)
	}

	// A key without expiry would block forever.
	if remaining < 0 {
		if err := limiter.client.Expire(context, redisKey, limiter.window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis: repair attempt window: %w", err)
		}
		remaining = limiter.window
	}

	return false, remaining, nil
}
