// Package cache defines the port interface for report caching.
package cache

import "context"

// Cache is the port interface for key-value caching.
// Entries expire after a TTL fixed by the implementation at construction.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}
