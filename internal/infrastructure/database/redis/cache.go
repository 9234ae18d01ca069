package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/SeaCert-Compliance/pkg/errors"
)

// ErrCacheMiss is returned when a key is absent or holds the null sentinel.
var ErrCacheMiss = appErrors.New(appErrors.ErrCodeNotFound, "cache miss")

// nullSentinel marks a key whose loader returned no value, so repeated
// misses do not hammer the database for rows that do not exist.
const nullSentinel = "__null__"

// ─────────────────────────────────────────────────────────────────────────────
// Cache interface
// ─────────────────────────────────────────────────────────────────────────────

// Cache is the read-through cache surface used by the application layer.
// Keys are logical names; the implementation adds the instance prefix.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// SetNX stores value only when the key is absent and reports whether it
	// did. The alert scanner uses it to deduplicate notifications.
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	// GetOrSet returns the cached value for key, or runs loader, caches the
	// result, and returns it. Concurrent misses for one key collapse into a
	// single loader call.
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	Ping(ctx context.Context) error
}

// Serializer converts cached values to and from their stored byte form.
type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

type jsonSerializer struct{}

func (jsonSerializer) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonSerializer) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

// ─────────────────────────────────────────────────────────────────────────────
// Implementation
// ─────────────────────────────────────────────────────────────────────────────

type redisCache struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
	nullTTL    time.Duration
	serializer Serializer
	group      singleflight.Group
}

// CacheOption customises a Cache at construction time.
type CacheOption func(*redisCache)

// WithPrefix sets the key namespace, normally config.RedisConfig.KeyPrefix.
func WithPrefix(prefix string) CacheOption {
	return func(c *redisCache) { c.prefix = prefix }
}

// WithDefaultTTL sets the expiry applied when a caller passes ttl zero.
func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *redisCache) { c.defaultTTL = ttl }
}

// WithNullTTL sets how long negative lookups stay parked.
func WithNullTTL(ttl time.Duration) CacheOption {
	return func(c *redisCache) { c.nullTTL = ttl }
}

// WithSerializer replaces the JSON serializer.
func WithSerializer(s Serializer) CacheOption {
	return func(c *redisCache) { c.serializer = s }
}

// NewCache builds a Cache on top of client.
func NewCache(client *Client, logger logging.Logger, opts ...CacheOption) Cache {
	c := &redisCache{
		client:     client,
		logger:     logger,
		prefix:     "seacert:",
		defaultTTL: 5 * time.Minute,
		nullTTL:    30 * time.Second,
		serializer: jsonSerializer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *redisCache) fullKey(key string) string {
	return c.prefix + key
}

// jitterTTL spreads expiries by up to ten percent either way so keys written
// in one burst do not all expire in one burst.
func (c *redisCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to read from cache")
	}
	if string(data) == nullSentinel {
		return ErrCacheMiss
	}
	if err := c.serializer.Unmarshal(data, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheSerialization, "failed to decode cached value")
	}
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheSerialization, "failed to encode value for cache")
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.jitterTTL(ttl)).Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to write to cache")
	}
	return nil
}

// SetNX applies ttl exactly as given: for deduplication keys the expiry is
// the deduplication window, so it must not be jittered.
func (c *redisCache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrCodeCacheSerialization, "failed to encode value for cache")
	}
	ok, err := c.client.SetNX(ctx, c.fullKey(key), data, ttl).Result()
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to write to cache")
	}
	return ok, nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	fullKeys := make([]string, len(keys))
	for i, k := range keys {
		fullKeys[i] = c.fullKey(k)
	}
	if err := c.client.Del(ctx, fullKeys...).Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to delete cache keys")
	}
	return nil
}

// DeleteByPrefix removes every key under prefix and returns how many were
// deleted. Recalculation runs use it to drop stale fleet summaries.
func (c *redisCache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var deleted int64
	var cursor uint64
	match := c.fullKey(prefix) + "*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return deleted, appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to scan cache keys")
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to delete cache keys")
			}
			deleted += int64(len(keys))
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.fullKey(key)).Result()
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to check cache key")
	}
	return n > 0, nil
}

func (c *redisCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if err != ErrCacheMiss {
		return err
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		v, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if v == nil {
			if setErr := c.client.Set(ctx, c.fullKey(key), nullSentinel, c.nullTTL).Err(); setErr != nil {
				c.logger.Warn("Failed to park null sentinel",
					logging.String("key", key), logging.Err(setErr))
			}
			return nil, nil
		}
		// Population failures degrade to a miss on the next call, so they
		// are logged rather than returned.
		if setErr := c.Set(ctx, key, v, ttl); setErr != nil {
			c.logger.Warn("Failed to populate cache",
				logging.String("key", key), logging.Err(setErr))
		}
		return v, nil
	})
	if err != nil {
		return err
	}
	if val == nil {
		return ErrCacheMiss
	}

	// Waiters share the one loader result, so it is copied into dest through
	// the serializer rather than assigned directly.
	data, err := c.serializer.Marshal(val)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheSerialization, "failed to copy loader result")
	}
	if err := c.serializer.Unmarshal(data, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheSerialization, "failed to copy loader result")
	}
	return nil
}

func (c *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, c.fullKey(key), ttl).Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to set cache expiry")
	}
	return nil
}

func (c *redisCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.client.TTL(ctx, c.fullKey(key)).Result()
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to read cache expiry")
	}
	return ttl, nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}
