package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a string key-value store with TTL, used for answer caching
// and other hot-path lookups.
type Cache interface {
	Get(key string) (value string, found bool, err error)
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Factory builds a cache from a Config.
type Factory func(config Config) (Cache, error)

var registry = make(map[string]Factory)

// RegisterCache makes a cache implementation available by name.
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache creates the cache registered under config.Type, falling
// back to the in-memory cache.
func NewCache(config Config) (Cache, error) {
	if factory, ok := registry[config.Type]; ok {
		return factory(config)
	}
	return NewMemoryCache(config)
}

// Config holds cache settings.
type Config struct {
	// Type selects the implementation: "memory" or "redis".
	Type string
	// RedisAddr is the Redis address (redis cache only).
	RedisAddr string
	// RedisPassword is the Redis password (redis cache only).
	RedisPassword string
	// RedisDB is the Redis database number (redis cache only).
	RedisDB int
	// DefaultTTL applies when Set is called with a zero TTL.
	DefaultTTL time.Duration
	// CleanupInterval is the expired-entry sweep period (memory cache
	// only).
	CleanupInterval time.Duration
}

// DefaultConfig returns the default cache settings.
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		DefaultTTL:      time.Hour * 24,
		CleanupInterval: time.Minute * 10,
	}
}

// GenerateCacheKey builds a namespaced key from parts.
func GenerateCacheKey(prefix string, parts ...string) string {
	key := prefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

// HashKey builds a fixed-length key from free-form text, for keys that
// embed user questions.
func HashKey(prefix string, text string) string {
	sum := sha256.Sum256([]byte(text))
	return prefix + ":" + hex.EncodeToString(sum[:16])
}
