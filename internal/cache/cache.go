// Package cache keeps upstream API responses between requests.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/foldaway/mrtdown-site-sub000/internal/config"
	"github.com/foldaway/mrtdown-site-sub000/internal/logger"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache stores opaque payloads by key. A ttl <= 0 uses the backend default.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New builds the backend selected in cfg. When redis cannot be reached the
// process keeps running on the in-memory backend.
func New(cfg config.Config, log logger.Logger) (Cache, error) {
	ttl := cfg.CacheTTL()
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		c, err := NewRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisDB, cfg.Cache.RedisPassword, ttl)
		if err != nil {
			log.Warn("redis cache unavailable; using in-memory fallback", "addr", cfg.Cache.RedisAddr, "error", err)
			return NewMemory(ttl), nil
		}
		return c, nil
	case config.CacheFile:
		return NewFile(cfg.Cache.FilePath, ttl)
	default:
		return NewMemory(ttl), nil
	}
}
