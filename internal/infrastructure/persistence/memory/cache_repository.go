// Package memory provides in-memory implementations of every outbound
// repository. They back the demo binary and make the assistant fully
// functional without external services.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mealmind/v1/internal/ports/outbound"
)

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// CacheRepository is a TTL-aware in-memory byte cache.
type CacheRepository struct {
	mu    sync.RWMutex
	items map[string]cacheItem
}

// NewCacheRepository creates an in-memory cache.
func NewCacheRepository() outbound.CacheRepository {
	return &CacheRepository{items: make(map[string]cacheItem)}
}

// Get returns the cached value, or nil on a miss or expired entry.
func (r *CacheRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	item, ok := r.items[key]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		r.mu.Lock()
		delete(r.items, key)
		r.mu.Unlock()
		return nil, nil
	}
	return item.value, nil
}

// Set stores a value with a TTL. A zero TTL stores it without expiry.
func (r *CacheRepository) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	item := cacheItem{value: value}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	r.mu.Lock()
	r.items[key] = item
	r.mu.Unlock()
	return nil
}

// Delete removes a cached value.
func (r *CacheRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.items, key)
	r.mu.Unlock()
	return nil
}
