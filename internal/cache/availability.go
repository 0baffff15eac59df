package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vaxpoint/bookings/pkg/logger"
)

// AvailabilityCache memoizes the open-slot list per date. Lookups fail
// open: a cache error is never surfaced to the caller.
type AvailabilityCache interface {
	Get(ctx context.Context, date time.Time) ([]string, bool)
	Set(ctx context.Context, date time.Time, labels []string)
	Invalidate(ctx context.Context, date time.Time)
}

// commands is the slice of redis.Cmdable the cache uses.
type commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// invalidateHoldoff is how long cache writes stay blocked after an
// invalidation. A reader that tallied before a booking landed may try
// to write its stale list afterwards; the marker left by Invalidate
// makes Set decline until the holdoff passes.
const invalidateHoldoff = 2 * time.Second

type redisCache struct {
	client commands
	ttl    time.Duration
}

func NewRedis(url string, ttl time.Duration) (AvailabilityCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &redisCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

func key(date time.Time) string {
	return "availability:" + date.Format("2006-01-02")
}

func dirtyKey(date time.Time) string {
	return "availability:dirty:" + date.Format("2006-01-02")
}

func (c *redisCache) Get(ctx context.Context, date time.Time) ([]string, bool) {
	raw, err := c.client.Get(ctx, key(date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.DebugContext(ctx, "availability cache read failed", "error", err)
		}
		return nil, false
	}

	var labels []string
	if err := json.Unmarshal(raw, &labels); err != nil {
		return nil, false
	}
	return labels, true
}

func (c *redisCache) Set(ctx context.Context, date time.Time, labels []string) {
	dirty, err := c.client.Exists(ctx, dirtyKey(date)).Result()
	if err != nil || dirty > 0 {
		return
	}

	raw, err := json.Marshal(labels)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(date), raw, c.ttl).Err(); err != nil {
		logger.DebugContext(ctx, "availability cache write failed", "error", err)
	}
}

// Invalidate drops the cached list and leaves a marker so in-flight
// readers cannot re-cache a list tallied before the change.
func (c *redisCache) Invalidate(ctx context.Context, date time.Time) {
	if err := c.client.Set(ctx, dirtyKey(date), "1", invalidateHoldoff).Err(); err != nil {
		logger.DebugContext(ctx, "availability cache mark failed", "error", err)
	}
	if err := c.client.Del(ctx, key(date)).Err(); err != nil {
		logger.DebugContext(ctx, "availability cache invalidate failed", "error", err)
	}
}

// Noop satisfies AvailabilityCache when no redis is configured.
type Noop struct{}

func (Noop) Get(context.Context, time.Time) ([]string, bool) { return nil, false }
func (Noop) Set(context.Context, time.Time, []string)        {}
func (Noop) Invalidate(context.Context, time.Time)           {}
