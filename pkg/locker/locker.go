// Package locker provides a distributed, keyed advisory lock on Redis.
// One holder per key, bounded acquisition wait, bounded hold via TTL.
package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotAcquired is returned when the wait budget elapses before the
	// lock could be taken.
	ErrNotAcquired = errors.New("lock not acquired within wait budget")

	// ErrNotHeld is returned by Extend when the key expired or belongs
	// to another holder.
	ErrNotHeld = errors.New("lock no longer held")
)

// Lua script for compare-and-delete release. Only the holder's token
// may delete the key; a missing or foreign key is left alone.
const luaCompareAndDelete = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

// Lua script for compare-and-extend. Adds ARGV[2] milliseconds to the
// remaining TTL, only while the holder's token is still in place.
const luaCompareAndExtend = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    local ttl = redis.call("PTTL", KEYS[1])
    if ttl < 0 then
        ttl = 0
    end
    return redis.call("PEXPIRE", KEYS[1], ttl + tonumber(ARGV[2]))
end
return 0
`

var (
	releaseScript = redis.NewScript(luaCompareAndDelete)
	extendScript  = redis.NewScript(luaCompareAndExtend)
)

// Options tune acquisition behaviour. Zero values fall back to the
// defaults below.
type Options struct {
	KeyPrefix     string
	WaitBudget    time.Duration
	HoldTTL       time.Duration
	RetryInterval time.Duration
}

const (
	defaultWaitBudget    = 10 * time.Second
	defaultHoldTTL       = 30 * time.Second
	defaultRetryInterval = 50 * time.Millisecond
	releaseTimeout       = 2 * time.Second
)

// Locker hands out single-holder locks keyed by string.
type Locker struct {
	redis         *redis.Client
	prefix        string
	waitBudget    time.Duration
	holdTTL       time.Duration
	retryInterval time.Duration
}

// New creates a Locker on the given Redis client.
func New(redisClient *redis.Client, opts Options) *Locker {
	if opts.WaitBudget <= 0 {
		opts.WaitBudget = defaultWaitBudget
	}
	if opts.HoldTTL <= 0 {
		opts.HoldTTL = defaultHoldTTL
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	return &Locker{
		redis:         redisClient,
		prefix:        opts.KeyPrefix,
		waitBudget:    opts.WaitBudget,
		holdTTL:       opts.HoldTTL,
		retryInterval: opts.RetryInterval,
	}
}

func (l *Locker) key(name string) string {
	return l.prefix + "lock:" + name
}

// Acquire takes the lock for key, retrying until success or until
// waitBudget elapses. The returned token is required to release.
func (l *Locker) Acquire(ctx context.Context, key string, holdTTL, waitBudget time.Duration) (string, error) {
	if holdTTL <= 0 {
		holdTTL = l.holdTTL
	}
	if waitBudget <= 0 {
		waitBudget = l.waitBudget
	}

	token := uuid.NewString()
	deadline := time.Now().Add(waitBudget)

	for {
		ok, err := l.redis.SetNX(ctx, l.key(key), token, holdTTL).Result()
		if err != nil {
			return "", fmt.Errorf("acquiring lock %s: %w", key, err)
		}
		if ok {
			return token, nil
		}

		if time.Now().Add(l.retryInterval).After(deadline) {
			return "", fmt.Errorf("lock %s: %w", key, ErrNotAcquired)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("acquiring lock %s: %w", key, ctx.Err())
		case <-time.After(l.retryInterval):
		}
	}
}

// Release deletes the key only while it still carries token. Expired or
// reassigned locks are left untouched and the call is a no-op.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	err := releaseScript.Run(ctx, l.redis, []string{l.key(key)}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("releasing lock %s: %w", key, err)
	}
	return nil
}

// Extend adds additionalTTL to the lock's remaining lifetime while the
// caller still holds it.
func (l *Locker) Extend(ctx context.Context, key, token string, additionalTTL time.Duration) error {
	res, err := extendScript.Run(ctx, l.redis, []string{l.key(key)}, token, additionalTTL.Milliseconds()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("extending lock %s: %w", key, err)
	}
	if res == 0 {
		return fmt.Errorf("lock %s: %w", key, ErrNotHeld)
	}
	return nil
}

// WithLock runs fn while holding the lock for key and always releases
// afterwards. Release uses a detached context so a cancelled request
// still cleans up; if release itself fails the TTL bounds the hold.
func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token, err := l.Acquire(ctx, key, l.holdTTL, l.waitBudget)
	if err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		_ = l.Release(releaseCtx, key, token)
	}()

	return fn(ctx)
}

// PreloadScripts loads the Lua scripts into Redis so later calls hit
// EVALSHA directly.
func (l *Locker) PreloadScripts(ctx context.Context) error {
	if err := releaseScript.Load(ctx, l.redis).Err(); err != nil {
		return fmt.Errorf("failed to load release script: %w", err)
	}
	if err := extendScript.Load(ctx, l.redis).Err(); err != nil {
		return fmt.Errorf("failed to load extend script: %w", err)
	}
	return nil
}
