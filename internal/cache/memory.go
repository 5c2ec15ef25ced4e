package cache

import (
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is the in-process tier. Values are stored as JSON so reads
// behave identically to the redis tier, including the copy semantics.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	hits   int64
	misses int64
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryCache) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *MemoryCache) Get(key string, dest interface{}) error {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		// Re-check before evicting: a Set may have replaced the entry
		// between the read unlock and here.
		if current, present := m.entries[key]; present && time.Now().After(current.expiresAt) {
			delete(m.entries, key)
		}
		m.misses++
		m.mu.Unlock()
		return ErrCacheMiss
	}

	m.mu.Lock()
	m.hits++
	m.mu.Unlock()

	if err := json.Unmarshal(entry.data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return nil
}

func (m *MemoryCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// DeletePattern removes every key matching a glob pattern, mirroring the
// redis tier's pattern semantics.
func (m *MemoryCache) DeletePattern(pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *MemoryCache) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]interface{}{
		"entries": len(m.entries),
		"hits":    m.hits,
		"misses":  m.misses,
	}
}

func (m *MemoryCache) Health() error {
	return nil
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}
