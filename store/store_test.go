package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr(), "")
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestCacheContract(t *testing.T) {
	ctx := context.Background()
	backends := map[string]func(t *testing.T) Cache{
		"local": func(t *testing.T) Cache {
			s := NewLocalStore(time.Minute)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"redis": func(t *testing.T) Cache {
			s, _ := newRedis(t)
			return s
		},
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			c := build(t)

			_, ok, err := c.Get(ctx, "/vps-setup.sh")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Set(ctx, "/vps-setup.sh", []byte("echo vps"), time.Minute))
			require.NoError(t, c.Set(ctx, "/local-setup.sh", []byte("echo local"), 0))

			val, ok, err := c.Get(ctx, "/vps-setup.sh")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "echo vps", string(val))

			n, err := c.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			purged, err := c.Purge(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, purged)

			n, err = c.Len(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestLocalStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(time.Hour)
	defer s.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "a", []byte("1"), 300*time.Second))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), 0))

	now = now.Add(301 * time.Second)

	_, ok, _ := s.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "b")
	assert.True(t, ok)

	n, _ := s.Len(ctx)
	assert.Equal(t, 1, n)

	s.sweep()
	s.mu.RLock()
	_, present := s.entries["a"]
	s.mu.RUnlock()
	assert.False(t, present)
}

func TestLocalStoreCopiesValue(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(time.Hour)
	defer s.Close()

	buf := []byte("echo one")
	require.NoError(t, s.Set(ctx, "k", buf, 0))
	buf[0] = 'X'

	val, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "echo one", string(val))
	assert.NoError(t, s.Close())
}

func TestRedisStoreExpiryAndPrefix(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedis(t)

	require.NoError(t, s.Set(ctx, "/vps-setup.sh", []byte("echo vps"), 300*time.Second))
	require.NoError(t, mr.Set("unrelated", "keep"))

	assert.True(t, mr.Exists("script:/vps-setup.sh"))
	assert.Equal(t, 300*time.Second, mr.TTL("script:/vps-setup.sh"))

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mr.FastForward(301 * time.Second)
	_, ok, err := s.Get(ctx, "/vps-setup.sh")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Purge(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("unrelated"))
}

func TestRedisStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedis(t)
	require.NoError(t, s.Ping(ctx))

	mr.Close()
	assert.Error(t, s.Ping(ctx))
	_, _, err := s.Get(ctx, "/vps-setup.sh")
	assert.Error(t, err)
}
