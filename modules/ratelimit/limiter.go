// Package ratelimit throttles the public auth endpoints per client IP using a
// Redis sorted-set sliding window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims entries older than the window, then admits the
// request only if fewer than limit remain. It runs atomically in Redis.
//
// KEYS[1] window key; ARGV: now_ms, window_start_ms, limit, window_ms.
// Returns {allowed, remaining, oldest_entry_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

local current = redis.call('ZCARD', key)
local expire_seconds = math.ceil(window_ms / 1000)

if current < limit then
	local counter = redis.call('INCR', key .. ':seq')
	redis.call('ZADD', key, now, now .. ':' .. counter)
	redis.call('EXPIRE', key, expire_seconds)
	redis.call('EXPIRE', key .. ':seq', expire_seconds)
	return {1, limit - current - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldest_ms = 0
if oldest and #oldest >= 2 then
	oldest_ms = tonumber(oldest[2])
end
return {0, 0, oldest_ms}
`)

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// SlidingWindowLimiter admits at most limit requests per key within any
// window-long interval.
type SlidingWindowLimiter struct {
	client    redis.Scripter
	limit     int
	window    time.Duration
	keyPrefix string
	now       func() time.Time
}

// NewSlidingWindowLimiter creates a limiter storing its windows under keyPrefix.
func NewSlidingWindowLimiter(client redis.Scripter, limit int, window time.Duration, keyPrefix string) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

// Allow records a request for key and reports whether it is within the limit.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	nowMs := now.UnixMilli()
	windowMs := l.window.Milliseconds()

	res, err := slidingWindowScript.Run(ctx, l.client, []string{l.keyPrefix + key},
		nowMs, nowMs-windowMs, l.limit, windowMs).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis script error: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected Redis response length: %d", len(res))
	}

	result := &Result{
		Allowed:   res[0] == 1,
		Limit:     l.limit,
		Remaining: int(res[1]),
		ResetAt:   now.Add(l.window),
	}
	if !result.Allowed && res[2] > 0 {
		result.ResetAt = time.UnixMilli(res[2] + windowMs)
		result.RetryAfter = result.ResetAt.Sub(now)
	}
	return result, nil
}
