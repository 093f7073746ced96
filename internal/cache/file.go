package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/foldaway/mrtdown-site-sub000/internal/monitoring"
)

// File persists cache entries as a single JSON document so a restarted
// process can serve the last upstream payloads immediately.
type File struct {
	mu      sync.RWMutex
	path    string
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewFile creates a file-backed cache and loads existing entries if present.
func NewFile(path string, defaultTTL time.Duration) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	f := &File{path: path, ttl: defaultTTL, now: time.Now}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	e, ok := f.entries[key]
	f.mu.RUnlock()
	if !ok || e.expired(f.now()) {
		monitoring.RecordCacheOperation("get", "miss")
		return nil, ErrMiss
	}
	monitoring.RecordCacheOperation("get", "hit")
	return e.Value, nil
}

func (f *File) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries[key] = newEntry(value, ttl, f.ttl, f.now())
	if err := f.persist(); err != nil {
		monitoring.RecordCacheOperation("set", "error")
		return err
	}
	monitoring.RecordCacheOperation("set", "success")
	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entries[key]; !ok {
		return nil
	}
	delete(f.entries, key)
	if err := f.persist(); err != nil {
		monitoring.RecordCacheOperation("delete", "error")
		return err
	}
	monitoring.RecordCacheOperation("delete", "success")
	return nil
}

func (f *File) load() error {
	f.entries = make(map[string]entry)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries map[string]entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache: %w", err)
	}
	now := f.now()
	for k, e := range entries {
		if !e.expired(now) {
			f.entries[k] = e
		}
	}
	return nil
}

// persist drops expired entries and atomically replaces the cache file.
// Callers hold f.mu.
func (f *File) persist() error {
	now := f.now()
	for k, e := range f.entries {
		if e.expired(now) {
			delete(f.entries, k)
		}
	}

	bytes, err := json.MarshalIndent(f.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", f.path, now.UnixNano())
	if err := os.WriteFile(tmpPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write temp cache: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
