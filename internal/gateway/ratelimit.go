package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"estateflow_backend/platform/config"
)

// slidingWindowScript implements a weighted sliding window: the previous
// window's count is weighted by how much of it still overlaps the rolling
// window, then the current counter is incremented and checked in one atomic
// round trip.
var slidingWindowScript = redis.NewScript(`
local current_key = KEYS[1]
local previous_key = KEYS[2]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local elapsed = tonumber(ARGV[3])

local current = tonumber(redis.call("GET", current_key) or "0")
local previous = tonumber(redis.call("GET", previous_key) or "0")
local weighted = current + previous * ((window - elapsed) / window)

if weighted >= limit then
	return {0, 0}
end

current = redis.call("INCR", current_key)
if current == 1 then
	redis.call("EXPIRE", current_key, window * 2)
end

local remaining = limit - (current + previous * ((window - elapsed) / window))
if remaining < 0 then
	remaining = 0
end
return {1, math.floor(remaining)}
`)

// peekScript reads the weighted count without consuming any quota.
var peekScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local previous = tonumber(redis.call("GET", KEYS[2]) or "0")
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local elapsed = tonumber(ARGV[3])

local remaining = limit - (current + previous * ((window - elapsed) / window))
if remaining < 0 then
	remaining = 0
end
return math.floor(remaining)
`)

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Remaining int
}

// RateLimiter enforces a per-key rolling request quota backed by Redis, so
// every API instance shares one view of each key's budget.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client, cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  cfg.GetRateLimitRequests(),
		window: cfg.GetRateLimitWindow(),
		now:    time.Now,
	}
}

// Allow records one request for the key and reports whether it fits the
// quota, along with the remaining budget after this request.
func (rl *RateLimiter) Allow(ctx context.Context, keyID string) (Decision, error) {
	keys, windowSecs, elapsed := rl.windowKeys(keyID)

	values, err := slidingWindowScript.Run(ctx, rl.client,
		keys, rl.limit, windowSecs, elapsed,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check: %w", err)
	}
	if len(values) != 2 {
		return Decision{}, fmt.Errorf("rate limit script returned %d values", len(values))
	}
	return Decision{Allowed: values[0] == 1, Remaining: int(values[1])}, nil
}

// Peek reports the key's remaining budget without consuming any of it.
// Used when a request is rejected before the rate-limit stage.
func (rl *RateLimiter) Peek(ctx context.Context, keyID string) (int, error) {
	keys, windowSecs, elapsed := rl.windowKeys(keyID)

	remaining, err := peekScript.Run(ctx, rl.client,
		keys, rl.limit, windowSecs, elapsed,
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("rate limit peek: %w", err)
	}
	return int(remaining), nil
}

func (rl *RateLimiter) windowKeys(keyID string) ([]string, int64, int64) {
	now := rl.now()
	windowSecs := int64(rl.window / time.Second)
	if windowSecs < 1 {
		windowSecs = 1
	}
	windowStart := now.Unix() - now.Unix()%windowSecs
	elapsed := now.Unix() - windowStart

	currentKey := fmt.Sprintf("ratelimit:%s:%d", keyID, windowStart)
	previousKey := fmt.Sprintf("ratelimit:%s:%d", keyID, windowStart-windowSecs)
	return []string{currentKey, previousKey}, windowSecs, elapsed
}

// Limit returns the configured per-window request budget.
func (rl *RateLimiter) Limit() int {
	return rl.limit
}
