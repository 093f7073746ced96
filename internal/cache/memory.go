package cache

import (
	"context"
	"sync"
	"time"

	"github.com/foldaway/mrtdown-site-sub000/internal/monitoring"
)

type entry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (e entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Memory is a process-local cache. Entries are not shared across replicas.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory returns an empty in-memory cache.
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{entries: make(map[string]entry), ttl: defaultTTL, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || e.expired(m.now()) {
		monitoring.RecordCacheOperation("get", "miss")
		return nil, ErrMiss
	}
	monitoring.RecordCacheOperation("get", "hit")
	return e.Value, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = newEntry(value, ttl, m.ttl, m.now())
	m.mu.Unlock()
	monitoring.RecordCacheOperation("set", "success")
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	monitoring.RecordCacheOperation("delete", "success")
	return nil
}

func newEntry(value []byte, ttl, fallback time.Duration, now time.Time) entry {
	if ttl <= 0 {
		ttl = fallback
	}
	e := entry{Value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	return e
}
