// Package cache memoises values keyed by the content of the input they were
// derived from, so re-analysing an identical upload skips parsing.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/bluele/gcache"
)

// ContentKey returns a key for data. Extra parts, such as the settings used
// to interpret data, are folded in so that the same bytes read two
// different ways do not share an entry. File names play no part.
func ContentKey(data []byte, parts ...string) string {
	h := sha256.New()
	h.Write(data)
	for _, p := range parts {
		// Separator keeps ("ab","c") and ("a","bc") apart.
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cache is a size-bounded LRU with optional expiry. It is safe for
// concurrent use. Cached values are shared between callers and must be
// treated as read-only.
type Cache[V any] struct {
	c gcache.Cache
}

// New returns a cache holding at most size entries. A ttl of zero keeps
// entries until they are evicted.
func New[V any](size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = 1
	}
	b := gcache.New(size).LRU()
	if ttl > 0 {
		b = b.Expiration(ttl)
	}
	return &Cache[V]{c: b.Build()}
}

// Get returns the value stored under key.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	v, err := c.c.Get(key)
	if err != nil {
		return zero, false
	}
	typed, ok := v.(V)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Set stores value under key.
func (c *Cache[V]) Set(key string, value V) error {
	return c.c.Set(key, value)
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// Errors from load are returned and not cached.
func (c *Cache[V]) GetOrLoad(key string, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if err := c.Set(key, v); err != nil {
		return v, err
	}
	return v, nil
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	return c.c.Len(true)
}

// HitCount returns the number of successful lookups.
func (c *Cache[V]) HitCount() uint64 {
	return c.c.HitCount()
}

// MissCount returns the number of failed lookups.
func (c *Cache[V]) MissCount() uint64 {
	return c.c.MissCount()
}
