package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimitType string

const (
	RateLimitTypeDefault RateLimitType = "default"
	RateLimitTypeBooking RateLimitType = "booking"
	RateLimitTypeAdmin   RateLimitType = "admin"
	RateLimitTypeHealth  RateLimitType = "health"
)

// Config holds per-class request budgets over a sliding window
type Config struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	BookingRequests int           `json:"booking_requests"`
	AdminRequests   int           `json:"admin_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// Result represents rate limit check result
type Result struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	client *redis.Client
	config *Config
}

func NewRateLimiter(client *redis.Client, config *Config) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// Lua script for atomic sliding window rate limiting
const luaSlidingWindow = `
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_seconds = tonumber(ARGV[4])

-- Remove old entries
redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

-- Count current requests
local current_count = redis.call('ZCARD', key)

-- Check if limit exceeded
if current_count >= limit then
    redis.call('EXPIRE', key, window_seconds)
    return {0, 0}
end

-- Add current request; member must be unique per hit
redis.call('ZADD', key, now, now .. '-' .. redis.call('INCR', key .. ':seq'))
redis.call('EXPIRE', key, window_seconds)
redis.call('EXPIRE', key .. ':seq', window_seconds)

return {1, limit - current_count - 1}
`

var slidingWindowScript = redis.NewScript(luaSlidingWindow)

// IsAllowed checks whether subject (user id or client IP) may proceed.
func (r *RateLimiter) IsAllowed(ctx context.Context, subject string, limitType RateLimitType) (*Result, error) {
	limit := r.getLimit(limitType)
	resetTime := time.Now().Add(r.config.WindowDuration).Unix()

	if !r.config.Enabled || r.isWhitelisted(subject) {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: resetTime,
		}, nil
	}

	key := fmt.Sprintf("evently:ratelimit:%s:%s", subject, limitType)
	return r.checkLimit(ctx, key, limit, resetTime)
}

func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, resetTime int64) (*Result, error) {
	now := time.Now()
	windowStart := now.Add(-r.config.WindowDuration)

	result, err := slidingWindowScript.Run(ctx, r.client, []string{key},
		windowStart.UnixMilli(),
		now.UnixMilli(),
		limit,
		int(r.config.WindowDuration.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("redis eval failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)

	return &Result{
		Allowed:   allowed == 1,
		Limit:     limit,
		Remaining: int(remaining),
		ResetTime: resetTime,
	}, nil
}

func (r *RateLimiter) getLimit(limitType RateLimitType) int {
	switch limitType {
	case RateLimitTypeBooking:
		return r.config.BookingRequests
	case RateLimitTypeAdmin:
		return r.config.AdminRequests
	case RateLimitTypeHealth:
		// Health probes are effectively unthrottled
		return 10000
	default:
		return r.config.DefaultRequests
	}
}

func (r *RateLimiter) isWhitelisted(subject string) bool {
	for _, ip := range r.config.WhitelistedIPs {
		if subject == ip {
			return true
		}
	}
	return false
}
