// Package ristretto implements the cache port on top of dgraph-io/ristretto,
// bounding the memory held by cached reports.
package ristretto

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// ErrNotStored is returned by Set when ristretto refuses the entry, either
// because its write buffer was full or because admission rejected it.
var ErrNotStored = errors.New("ristretto: entry not stored")

// Cache wraps a ristretto cache with a fixed entry TTL.
type Cache struct {
	c   *ristretto.Cache[string, []byte]
	ttl time.Duration
}

// New creates a ristretto-backed cache. maxCostBytes is the maximum total
// size of cached values in bytes.
func New(maxCostBytes int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(maxCostBytes/100*10, 1000), // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

// Get retrieves a value from the cache.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores a value and waits until it is visible to readers.
func (c *Cache) Set(_ context.Context, key string, value []byte) error {
	if !c.c.SetWithTTL(key, value, int64(len(value)), c.ttl) {
		return ErrNotStored
	}
	c.c.Wait()
	// Admission runs after the write buffer drains; a rejected entry is
	// only observable as a miss.
	if _, ok := c.c.Get(key); !ok {
		return ErrNotStored
	}
	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Clear drops every entry.
func (c *Cache) Clear(_ context.Context) error {
	c.c.Clear()
	return nil
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}
