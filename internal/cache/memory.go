// Package cache holds the byte caches used for vendor forecasts.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
}

// MemoryCache is a concurrency-safe in-process cache.
type MemoryCache struct {
	mu sync.RWMutex

	// key: cache key, value: entry
	data map[string]entry

	// retention configuration
	maxEntries int           // max number of keys kept
	maxAge     time.Duration // upper bound on any ttl

	now func() time.Time
}

// NewMemoryCache creates a new MemoryCache with optional limits.
// If maxEntries or maxAge is <= 0, it is treated as unlimited.
func NewMemoryCache(maxEntries int, maxAge time.Duration) *MemoryCache {
	return &MemoryCache{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Get returns the value for key unless it is missing or expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.data[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value for ttl and enforces retention.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	if c.maxAge > 0 && (ttl <= 0 || ttl > c.maxAge) {
		ttl = c.maxAge
	}

	e := entry{value: append([]byte(nil), value...), storedAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = e

	// Enforce retention by count, dropping expired entries first, then the oldest.
	if c.maxEntries > 0 && len(c.data) > c.maxEntries {
		for k, v := range c.data {
			if !v.expiresAt.IsZero() && !now.Before(v.expiresAt) {
				delete(c.data, k)
			}
		}
		for len(c.data) > c.maxEntries {
			var (
				oldestKey string
				oldest    time.Time
			)
			for k, v := range c.data {
				if oldestKey == "" || v.storedAt.Before(oldest) {
					oldestKey, oldest = k, v.storedAt
				}
			}
			delete(c.data, oldestKey)
		}
	}
	return nil
}

// Len returns the number of stored keys, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
