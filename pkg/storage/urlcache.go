package storage

import (
	"sync"
	"time"
)

// URLCache memoizes signed download URLs so repeated requests for the
// same file do not re-sign on every call. The clock is injectable so
// expiry behavior can be tested without sleeping.
type URLCache struct {
	storage Storage
	ttl     time.Duration
	margin  time.Duration
	clock   func() time.Time

	mu      sync.Mutex
	entries map[string]urlEntry
}

type urlEntry struct {
	url       string
	expiresAt time.Time
}

// URLCacheOption mutates a URLCache.
type URLCacheOption func(*URLCache)

// WithClock replaces the time source.
func WithClock(clock func() time.Time) URLCacheOption {
	return func(c *URLCache) { c.clock = clock }
}

// WithMargin sets how long before real expiry a cached URL is treated
// as stale, so callers never receive a URL about to expire.
func WithMargin(margin time.Duration) URLCacheOption {
	return func(c *URLCache) { c.margin = margin }
}

// NewURLCache creates a URL cache over a storage backend.
func NewURLCache(storage Storage, ttl time.Duration, opts ...URLCacheOption) *URLCache {
	c := &URLCache{
		storage: storage,
		ttl:     ttl,
		margin:  time.Minute,
		clock:   time.Now,
		entries: make(map[string]urlEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.margin >= c.ttl {
		c.margin = c.ttl / 10
	}
	return c
}

// Get returns a signed URL for the file, from cache when one is still
// fresh.
func (c *URLCache) Get(id string) (string, error) {
	now := c.clock()

	c.mu.Lock()
	entry, ok := c.entries[id]
	c.mu.Unlock()

	if ok && now.Before(entry.expiresAt.Add(-c.margin)) {
		return entry.url, nil
	}

	url, err := c.storage.SignedURL(id, c.ttl)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[id] = urlEntry{url: url, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()

	return url, nil
}

// Evict drops the cached URL for a file, e.g. after deletion.
func (c *URLCache) Evict(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Len reports how many URLs are cached.
func (c *URLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
