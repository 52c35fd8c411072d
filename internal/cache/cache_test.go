package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewInMemoryCache()
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx, "search:STN:VLC")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, "search:STN:VLC", []byte(`[1]`), time.Minute))
	got, err := c.Get(ctx, "search:STN:VLC")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1]`), got)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "search:STN:VLC")
	assert.ErrorIs(t, err, ErrNotFound, "expired entries are evicted")

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	_, err := NewRedisCache("127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
