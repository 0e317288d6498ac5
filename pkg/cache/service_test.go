package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counters struct {
	EventID   int64 `json:"event_id"`
	Available int   `json:"available"`
}

func setupCache(t *testing.T) (*miniredis.Miniredis, Service) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewService(client)
}

func TestGetMiss(t *testing.T) {
	_, svc := setupCache(t)

	var dest counters
	err := svc.Get(context.Background(), "availability:1", &dest)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestSetGetRoundTrip(t *testing.T) {
	_, svc := setupCache(t)
	ctx := context.Background()

	in := counters{EventID: 1, Available: 7}
	require.NoError(t, svc.Set(ctx, "availability:1", in, time.Minute))

	var out counters
	require.NoError(t, svc.Get(ctx, "availability:1", &out))
	assert.Equal(t, in, out)
	assert.True(t, svc.Exists(ctx, "availability:1"))
}

func TestExpiredKeyIsAMiss(t *testing.T) {
	mr, svc := setupCache(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "availability:2", counters{EventID: 2}, time.Second))
	mr.FastForward(2 * time.Second)

	var out counters
	assert.True(t, errors.Is(svc.Get(ctx, "availability:2", &out), ErrCacheMiss))
}

func TestDeletePattern(t *testing.T) {
	_, svc := setupCache(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "availability:1", counters{}, time.Minute))
	require.NoError(t, svc.Set(ctx, "availability:2", counters{}, time.Minute))
	require.NoError(t, svc.Set(ctx, "other:1", counters{}, time.Minute))

	require.NoError(t, svc.DeletePattern(ctx, "availability:*"))

	assert.False(t, svc.Exists(ctx, "availability:1"))
	assert.False(t, svc.Exists(ctx, "availability:2"))
	assert.True(t, svc.Exists(ctx, "other:1"))
}

func TestGetOrSetFetchesOnceThenHits(t *testing.T) {
	_, svc := setupCache(t)
	ctx := context.Background()

	calls := 0
	fetcher := func() (interface{}, error) {
		calls++
		return counters{EventID: 3, Available: 4}, nil
	}

	var first counters
	require.NoError(t, svc.GetOrSet(ctx, "availability:3", time.Minute, fetcher, &first))
	assert.Equal(t, 4, first.Available)
	assert.Equal(t, 1, calls)

	var second counters
	require.NoError(t, svc.GetOrSet(ctx, "availability:3", time.Minute, fetcher, &second))
	assert.Equal(t, 4, second.Available)
	assert.Equal(t, 1, calls, "second read must be served from cache")
}

func TestGetOrSetPropagatesFetcherError(t *testing.T) {
	_, svc := setupCache(t)

	wantErr := errors.New("db down")
	var dest counters
	err := svc.GetOrSet(context.Background(), "availability:4", time.Minute, func() (interface{}, error) {
		return nil, wantErr
	}, &dest)

	assert.ErrorIs(t, err, wantErr)
}
