package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

// fakeRedis implements the commands interface against a map, with an
// adjustable clock so key expiry is observable without sleeping.
type fakeRedis struct {
	entries map[string]fakeEntry
	now     time.Time
	err     error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		entries: make(map[string]fakeEntry),
		now:     time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRedis) live(key string) (fakeEntry, bool) {
	e, ok := f.entries[key]
	if !ok || (!e.expiresAt.IsZero() && !f.now.Before(e.expiresAt)) {
		return fakeEntry{}, false
	}
	return e, true
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	e, ok := f.live(key)
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(e.value, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	e := fakeEntry{value: fmt.Sprintf("%s", value)}
	if expiration > 0 {
		e.expiresAt = f.now.Add(expiration)
	}
	f.entries[key] = e
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.entries[k]; ok {
			delete(f.entries, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.live(k); ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func newCacheFixture() (*redisCache, *fakeRedis) {
	fake := newFakeRedis()
	return &redisCache{client: fake, ttl: 30 * time.Second}, fake
}

var cacheDate = time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)

func TestRedisCache_RoundTrip(t *testing.T) {
	c, _ := newCacheFixture()
	ctx := context.Background()

	c.Set(ctx, cacheDate, []string{"10 AM", "10:30 AM"})

	labels, ok := c.Get(ctx, cacheDate)
	require.True(t, ok)
	assert.Equal(t, []string{"10 AM", "10:30 AM"}, labels)
}

func TestRedisCache_MissOnUnknownDate(t *testing.T) {
	c, _ := newCacheFixture()

	_, ok := c.Get(context.Background(), cacheDate)

	assert.False(t, ok)
}

func TestRedisCache_InvalidateDropsEntry(t *testing.T) {
	c, _ := newCacheFixture()
	ctx := context.Background()

	c.Set(ctx, cacheDate, []string{"10 AM"})
	c.Invalidate(ctx, cacheDate)

	_, ok := c.Get(ctx, cacheDate)
	assert.False(t, ok)
}

func TestRedisCache_SetDeclinedDuringHoldoff(t *testing.T) {
	c, fake := newCacheFixture()
	ctx := context.Background()

	// A reader tallies, then a booking lands and invalidates. The
	// reader's late write must not resurrect the stale list.
	staleLabels := []string{"10 AM", "11 AM"}
	c.Invalidate(ctx, cacheDate)
	c.Set(ctx, cacheDate, staleLabels)

	_, ok := c.Get(ctx, cacheDate)
	assert.False(t, ok)

	// After the holdoff a fresh tally may be cached again.
	fake.now = fake.now.Add(invalidateHoldoff + time.Second)
	c.Set(ctx, cacheDate, []string{"11 AM"})

	labels, ok := c.Get(ctx, cacheDate)
	require.True(t, ok)
	assert.Equal(t, []string{"11 AM"}, labels)
}

func TestRedisCache_EntryExpires(t *testing.T) {
	c, fake := newCacheFixture()
	ctx := context.Background()

	c.Set(ctx, cacheDate, []string{"10 AM"})
	fake.now = fake.now.Add(31 * time.Second)

	_, ok := c.Get(ctx, cacheDate)
	assert.False(t, ok)
}

func TestRedisCache_FailsOpen(t *testing.T) {
	c, fake := newCacheFixture()
	ctx := context.Background()
	fake.err = assert.AnError

	_, ok := c.Get(ctx, cacheDate)
	assert.False(t, ok)

	c.Set(ctx, cacheDate, []string{"10 AM"})
	c.Invalidate(ctx, cacheDate)
}
