// Package memcache implements the cache port as a mutex-guarded map with a
// fixed TTL. Expired entries are evicted by the read that observes them.
package memcache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is the entry lifetime used when New receives a non-positive TTL.
const DefaultTTL = 300 * time.Second

type entry struct {
	storedAt time.Time
	value    []byte
}

// Cache is an unbounded in-process cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates an empty cache whose entries live for ttl.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the value stored under key if it is younger than the TTL.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found {
		return nil, false, nil
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key, replacing any previous entry.
func (c *Cache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.entries[key] = entry{storedAt: c.now(), value: value}
	c.mu.Unlock()
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Clear drops every entry.
func (c *Cache) Clear(_ context.Context) error {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
