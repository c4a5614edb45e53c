package dedupe

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/huddle/pkg/logger"
)

// Default retention for recorded event ids in Redis.
const defaultRedisTTL = 24 * time.Hour

// redisDeduper implements Deduper on Redis so multiple service instances
// share one idempotency record. Keys expire after a TTL instead of the
// in-memory eviction scheme.
type redisDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	size   atomic.Int64 // ids recorded by this instance; approximation
	log    logger.Logger
}

// RedisOption applies a configuration option to the Redis deduper.
type RedisOption func(*redisDeduper)

// WithTTL sets how long recorded ids are retained.
func WithTTL(ttl time.Duration) RedisOption {
	return func(d *redisDeduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the Redis key prefix for recorded ids.
func WithKeyPrefix(prefix string) RedisOption {
	return func(d *redisDeduper) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

// NewRedisDeduper creates a Redis-backed deduper for the given address.
func NewRedisDeduper(addr string, opts ...RedisOption) Deduper {
	d := &redisDeduper{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: "huddle:event:",
		ttl:    defaultRedisTTL,
		log:    logger.Get().Named("dedupe"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// SeenAndRecord records id via SETNX; an id that was already present was seen.
// On transport errors the event is treated as unseen so it is not dropped.
func (d *redisDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	recorded, err := d.client.SetNX(ctx, d.prefix+id, 1, d.ttl).Result()
	if err != nil {
		d.log.Warn(ctx, "dedupe check failed; treating event as unseen",
			logger.String("eventID", id),
			logger.Error(err),
		)
		return false
	}
	if recorded {
		d.size.Add(1)
		return false
	}
	return true
}

// Unrecord removes an ID from Redis, allowing it to be retried.
func (d *redisDeduper) Unrecord(ctx context.Context, id string) {
	if err := d.client.Del(ctx, d.prefix+id).Err(); err != nil {
		d.log.Warn(ctx, "dedupe unrecord failed",
			logger.String("eventID", id),
			logger.Error(err),
		)
		return
	}
	d.size.Add(-1)
}

// Size returns the number of ids recorded by this instance.
func (d *redisDeduper) Size() int64 {
	return d.size.Load()
}
