package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is a bounded in-process LRU with per-entry expiry
type MemoryCache struct {
	entries *lru.Cache[string, memoryEntry]
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an LRU holding at most size entries. A zero ttl keeps
// entries until they are evicted.
func NewMemoryCache(size int, ttl time.Duration) (*MemoryCache, error) {
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &MemoryCache{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// Get returns the cached value unless it is missing or expired
func (m *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	entry, ok := m.entries.Get(key)
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.entries.Remove(key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key
func (m *MemoryCache) Set(_ context.Context, key, value string) error {
	entry := memoryEntry{value: value}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.entries.Add(key, entry)
	return nil
}

// Len returns the number of cached entries, expired ones included
func (m *MemoryCache) Len() int {
	return m.entries.Len()
}

// Health returns the cache occupancy
func (m *MemoryCache) Health(context.Context) map[string]interface{} {
	return map[string]interface{}{
		"status":  "up",
		"backend": "memory",
		"entries": m.entries.Len(),
	}
}

// Close drops every entry
func (m *MemoryCache) Close() error {
	m.entries.Purge()
	return nil
}
