package registrycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache implementation backed by Redis, for deployments
// sharing the federation cache across multiple processes.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache wraps an already-connected Redis client. prefix namespaces
// every key this cache touches (e.g. "metacall:cache:").
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

type redisEntry struct {
	Tag      string    `json:"tag"`
	Name     string    `json:"name"`
	Inspect  []byte    `json:"inspect"`
	CachedAt time.Time `json:"cached_at"`
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registrycache: redis get %q: %w", key, err)
	}
	var re redisEntry
	if err := json.Unmarshal(raw, &re); err != nil {
		return nil, fmt.Errorf("registrycache: decode cached entry %q: %w", key, err)
	}
	return &Entry{Tag: re.Tag, Name: re.Name, Inspect: re.Inspect, CachedAt: re.CachedAt}, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	re := redisEntry{Tag: entry.Tag, Name: entry.Name, Inspect: entry.Inspect, CachedAt: entry.CachedAt}
	raw, err := json.Marshal(re)
	if err != nil {
		return fmt.Errorf("registrycache: encode entry %q: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("registrycache: redis set %q: %w", key, err)
	}
	return nil
}

// Delete implements Cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("registrycache: redis del %q: %w", key, err)
	}
	return nil
}
