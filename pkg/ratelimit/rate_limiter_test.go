package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimiter(t *testing.T, cfg *Config) (*miniredis.Miniredis, *RateLimiter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRateLimiter(client, cfg)
}

func baseConfig() *Config {
	return &Config{
		Enabled:         true,
		WindowDuration:  time.Minute,
		DefaultRequests: 3,
		BookingRequests: 2,
		AdminRequests:   10,
	}
}

func TestAllowsWithinBudget(t *testing.T) {
	_, rl := setupLimiter(t, baseConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := rl.IsAllowed(ctx, "user:1", RateLimitTypeDefault)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should pass", i+1)
	}
}

func TestBlocksOverBudget(t *testing.T) {
	_, rl := setupLimiter(t, baseConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := rl.IsAllowed(ctx, "user:2", RateLimitTypeBooking)
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	res, err := rl.IsAllowed(ctx, "user:2", RateLimitTypeBooking)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 2, res.Limit)
}

func TestSubjectsAreIsolated(t *testing.T) {
	_, rl := setupLimiter(t, baseConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := rl.IsAllowed(ctx, "user:3", RateLimitTypeBooking)
		require.NoError(t, err)
	}

	res, err := rl.IsAllowed(ctx, "user:4", RateLimitTypeBooking)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "a different subject has its own budget")
}

func TestDisabledLimiterAlwaysAllows(t *testing.T) {
	cfg := baseConfig()
	cfg.Enabled = false
	_, rl := setupLimiter(t, cfg)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		res, err := rl.IsAllowed(ctx, "user:5", RateLimitTypeBooking)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
}

func TestWhitelistBypassesBudget(t *testing.T) {
	cfg := baseConfig()
	cfg.WhitelistedIPs = []string{"10.0.0.9"}
	_, rl := setupLimiter(t, cfg)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		res, err := rl.IsAllowed(ctx, "10.0.0.9", RateLimitTypeBooking)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
}

func TestRouteClassification(t *testing.T) {
	assert.Equal(t, RateLimitTypeHealth, getRateLimitType("/health"))
	assert.Equal(t, RateLimitTypeHealth, getRateLimitType("/metrics"))
	assert.Equal(t, RateLimitTypeAdmin, getRateLimitType("/v1/admin/bookings"))
	assert.Equal(t, RateLimitTypeAdmin, getRateLimitType("/v1/waitlist/admin/event/:event_id"))
	assert.Equal(t, RateLimitTypeBooking, getRateLimitType("/v1/bookings"))
	assert.Equal(t, RateLimitTypeBooking, getRateLimitType("/v1/waitlist/join"))
	assert.Equal(t, RateLimitTypeDefault, getRateLimitType("/v1/availability/events/:event_id"))
}
