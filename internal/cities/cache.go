package cities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores city lists by country code.
type Cache interface {
	Get(ctx context.Context, countryCode string) ([]City, bool, error)
	Set(ctx context.Context, countryCode string, cities []City, ttl time.Duration) error
}

type memoryEntry struct {
	cities  []City
	expires time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached list if present and not expired.
func (c *MemoryCache) Get(_ context.Context, countryCode string) ([]City, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[countryCode]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, countryCode)
		return nil, false, nil
	}
	return append([]City(nil), e.cities...), true, nil
}

// Set stores a copy of cities until ttl elapses.
func (c *MemoryCache) Set(_ context.Context, countryCode string, cities []City, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[countryCode] = memoryEntry{
		cities:  append([]City(nil), cities...),
		expires: c.now().Add(ttl),
	}
	return nil
}

const redisKeyPrefix = "been:cities:"

// RedisCache shares city lists between processes through Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps a connected client. The caller owns the client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisCacheFromURL connects to a redis:// URL.
func NewRedisCacheFromURL(ctx context.Context, rawURL string) (*RedisCache, func() error, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewRedisCache(client), client.Close, nil
}

// Get reads a cached list. A missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, countryCode string) ([]City, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+countryCode).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache: %w", err)
	}

	var cities []City
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, false, fmt.Errorf("decoding cached cities: %w", err)
	}
	return cities, true, nil
}

// Set writes a list with an expiry.
func (c *RedisCache) Set(ctx context.Context, countryCode string, cities []City, ttl time.Duration) error {
	data, err := json.Marshal(cities)
	if err != nil {
		return fmt.Errorf("encoding cities: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+countryCode, data, ttl).Err(); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}
