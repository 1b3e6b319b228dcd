// Package cache provides a TTL cache for market snapshots and token metadata.
package cache

import (
	"strings"
	"time"
)

// Cache is a key/value store with per-entry TTL.
// Keys are namespaced as "<namespace>:<id>", e.g. "pool:0xabc".
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns (value, true) if found, (nil, false) if not found.
	Get(key string) (interface{}, bool)

	// Set stores a value in the cache with a TTL. Writes may be applied asynchronously.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear()

	// Close closes the cache and releases resources.
	Close()
}

// Key builds a namespaced cache key.
func Key(namespace, id string) string {
	return namespace + ":" + strings.ToLower(id)
}

// GetAs retrieves a value and asserts its type. A value of the wrong type is a miss.
func GetAs[T any](c Cache, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}

	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}

	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func namespaceOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "default"
}
