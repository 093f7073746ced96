package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldaway/mrtdown-site-sub000/internal/config"
	"github.com/foldaway/mrtdown-site-sub000/internal/logger"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
	m := NewMemory(time.Minute)
	m.now = clk.now

	require.NoError(t, m.Set(ctx, "overview", []byte(`{"a":1}`), 0))
	require.NoError(t, m.Set(ctx, "short", []byte("x"), 10*time.Second))

	got, err := m.Get(ctx, "overview")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	clk.t = clk.t.Add(10 * time.Second)
	_, err = m.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = m.Get(ctx, "overview")
	assert.NoError(t, err)

	clk.t = clk.t.Add(time.Minute)
	_, err = m.Get(ctx, "overview")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, m.Delete(ctx, "k"))
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, m.Delete(ctx, "absent"))
}

func TestMemoryCopiesValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, 0))
	buf[0] = 'z'
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFileSurvivesReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.json")

	f, err := NewFile(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.Set(ctx, "statistics", []byte(`{"dates":{}}`), 0))
	require.NoError(t, f.Set(ctx, "gone", []byte("x"), 0))
	require.NoError(t, f.Delete(ctx, "gone"))

	reopened, err := NewFile(path, time.Hour)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "statistics")
	require.NoError(t, err)
	assert.Equal(t, `{"dates":{}}`, string(got))
	_, err = reopened.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrMiss)

	matches, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileDropsExpiredEntriesOnLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")

	f, err := NewFile(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.Set(ctx, "stale", []byte("x"), time.Nanosecond))
	time.Sleep(time.Millisecond)

	reopened, err := NewFile(path, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, reopened.entries)
}

func TestFileRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewFile(path, time.Hour)
	assert.Error(t, err)
}

func TestNewFallsBackToMemoryWhenRedisIsDown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Backend = config.CacheRedis
	cfg.Cache.RedisAddr = "127.0.0.1:1"

	c, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)
}

func TestNewFileBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Backend = config.CacheFile
	cfg.Cache.FilePath = filepath.Join(t.TempDir(), "cache.json")

	c, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &File{}, c)
}
