package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"finledger/internal/logger"
)

// SummaryCache stores monthly summaries keyed by owner and period. Values
// are JSON documents; callers pass a pointer to decode into.
//
// Every Invalidate bumps the period's generation. A reader takes the
// generation before computing a summary and hands it to Set, which drops the
// write if an invalidation happened in between.
type SummaryCache interface {
	// Get decodes the cached value into dst. It returns false on a miss.
	Get(ctx context.Context, userID string, month, year int, dst interface{}) (bool, error)
	Generation(ctx context.Context, userID string, month, year int) (int64, error)
	// Set stores value only while the generation still equals generation.
	Set(ctx context.Context, userID string, month, year int, generation int64, value interface{}) error
	Invalidate(ctx context.Context, userID string, month, year int) error
}

// SummaryKey returns the cache key of one owner's monthly summary.
func SummaryKey(userID string, month, year int) string {
	return fmt.Sprintf("finledger:summary:%s:%04d-%02d", userID, year, month)
}

// GenerationKey returns the key of the invalidation counter of a summary.
func GenerationKey(userID string, month, year int) string {
	return SummaryKey(userID, month, year) + ":gen"
}

type redisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSummaryCache returns a SummaryCache backed by Redis. A non-positive
// ttl keeps entries until they are invalidated.
func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) SummaryCache {
	if ttl < 0 {
		ttl = 0
	}
	return &redisSummaryCache{client: client, ttl: ttl}
}

func (c *redisSummaryCache) Get(ctx context.Context, userID string, month, year int, dst interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, SummaryKey(userID, month, year)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read summary cache: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// A stale or foreign entry is treated as a miss and dropped.
		c.client.Del(ctx, SummaryKey(userID, month, year))
		return false, nil
	}
	return true, nil
}

func (c *redisSummaryCache) Generation(ctx context.Context, userID string, month, year int) (int64, error) {
	return readGeneration(ctx, c.client, GenerationKey(userID, month, year))
}

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, r stringGetter, key string) (int64, error) {
	gen, err := r.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read summary generation: %w", err)
	}
	return gen, nil
}

func (c *redisSummaryCache) Set(ctx context.Context, userID string, month, year int, generation int64, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	genKey := GenerationKey(userID, month, year)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, genKey)
		if err != nil {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, SummaryKey(userID, month, year), raw, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		// Invalidated while writing; the next reader recomputes.
		return nil
	}
	if err != nil {
		return fmt.Errorf("write summary cache: %w", err)
	}
	return nil
}

func (c *redisSummaryCache) Invalidate(ctx context.Context, userID string, month, year int) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey(userID, month, year))
		pipe.Del(ctx, SummaryKey(userID, month, year))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate summary cache: %w", err)
	}
	return nil
}

type nopSummaryCache struct{}

// NewNopSummaryCache returns a SummaryCache that never stores anything.
func NewNopSummaryCache() SummaryCache {
	return nopSummaryCache{}
}

func (nopSummaryCache) Get(context.Context, string, int, int, interface{}) (bool, error) {
	return false, nil
}

func (nopSummaryCache) Generation(context.Context, string, int, int) (int64, error) { return 0, nil }

func (nopSummaryCache) Set(context.Context, string, int, int, int64, interface{}) error { return nil }

func (nopSummaryCache) Invalidate(context.Context, string, int, int) error { return nil }

// Connect opens a Redis client for addr and pings it. An empty addr disables
// caching and returns a nil client with no error.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		logger.Get().Warnw("REDIS_ADDR not set, summary caching disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Get().Infow("Connected to Redis", "addr", addr)
	return client, nil
}

// New builds the summary cache for addr, falling back to the no-op cache when
// Redis is not configured or unreachable. The returned close func is never nil.
func New(ctx context.Context, addr string, ttl time.Duration) (SummaryCache, func() error) {
	client, err := Connect(ctx, addr)
	if err != nil {
		logger.Get().Errorw("Redis unavailable, summary caching disabled", "addr", addr, "error", err)
		return NewNopSummaryCache(), func() error { return nil }
	}
	if client == nil {
		return NewNopSummaryCache(), func() error { return nil }
	}
	return NewRedisSummaryCache(client, ttl), client.Close
}
