package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/candidate"
)

const cacheKeyPrefix = "jobflow:source:"

// Cache stores pulled records.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cached serves records from a cache keyed by source id and query. Cache
// failures are logged and fall through to the wrapped source.
type Cached struct {
	Source
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCached(src Source, cache Cache, ttl time.Duration, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{Source: src, cache: cache, ttl: ttl, logger: logger}
}

func (c *Cached) Pull(ctx context.Context, query candidate.SearchQuery) ([]any, error) {
	key, err := cacheKey(c.ID(), query)
	if err != nil {
		return nil, err
	}

	data, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("reading source cache", zap.String("source", c.ID()), zap.Error(err))
	case ok:
		var records []any
		if err := json.Unmarshal(data, &records); err == nil {
			c.logger.Debug("source cache hit", zap.String("source", c.ID()), zap.Int("records", len(records)))
			return records, nil
		}
		c.logger.Warn("dropping undecodable cache entry", zap.String("source", c.ID()))
	}

	records, err := c.Source.Pull(ctx, query)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(records)
	if err != nil {
		c.logger.Warn("encoding records for cache", zap.String("source", c.ID()), zap.Error(err))
		return records, nil
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("writing source cache", zap.String("source", c.ID()), zap.Error(err))
	}

	return records, nil
}

func cacheKey(id string, query candidate.SearchQuery) (string, error) {
	data, err := json.Marshal(query)
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}
	sum := sha256.Sum256(data)
	return cacheKeyPrefix + id + ":" + hex.EncodeToString(sum[:8]), nil
}

// RedisCache is a Cache backed by redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// MemoryCache is an in-process Cache. Entries expire lazily.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}
