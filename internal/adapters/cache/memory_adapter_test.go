package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunuchoix/search-backend/internal/adapters/cache"
	apperrors "github.com/sunuchoix/search-backend/pkg/errors"
)

func TestSetAndGet(t *testing.T) {
	c := cache.NewMemoryCache(10, 300)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), 0))

	got, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	c := cache.NewMemoryCache(10, 300)

	_, err := c.Get(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestTTLExpiry(t *testing.T) {
	c := cache.NewMemoryCache(10, 300)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 1))

	_, err := c.Get(ctx, "short")
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	_, err = c.Get(ctx, "short")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.Equal(t, 0, c.Len())
}

func TestEvictsOldestOnOverflow(t *testing.T) {
	c := cache.NewMemoryCache(3, 300)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0))
	}

	assert.Equal(t, 3, c.Len())
	_, err := c.Get(ctx, "k0")
	assert.Error(t, err)
	_, err = c.Get(ctx, "k1")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "k3")
	assert.NoError(t, err)
}

func TestResetCountsAsFreshInsertion(t *testing.T) {
	c := cache.NewMemoryCache(2, 300)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "a", []byte("3"), 0)) // "a" becomes newest
	require.NoError(t, c.Set(ctx, "c", []byte("4"), 0)) // evicts "b"

	_, err := c.Get(ctx, "b")
	assert.Error(t, err)
	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
}

func TestDeletePattern(t *testing.T) {
	c := cache.NewMemoryCache(10, 300)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "search:aaa", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "search:bbb", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "geo:ip", []byte("3"), 0))

	require.NoError(t, c.DeletePattern(ctx, "search:*"))

	assert.Equal(t, 1, c.Len())
	_, err := c.Get(ctx, "geo:ip")
	assert.NoError(t, err)
}

func TestCleanupSweepsExpired(t *testing.T) {
	c := cache.NewMemoryCache(10, 300)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 1))
	require.NoError(t, c.Set(ctx, "long", []byte("v"), 600))

	time.Sleep(1100 * time.Millisecond)

	assert.Equal(t, 1, c.Cleanup())
	assert.Equal(t, 1, c.Len())
}

func TestStats(t *testing.T) {
	c := cache.NewMemoryCache(10, 300)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("v"), 0))
	_, _ = c.Get(ctx, "key")
	_, _ = c.Get(ctx, "key")
	_, _ = c.Get(ctx, "missing")
	_, _ = c.Get(ctx, "missing")

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate)

	c.Clear()
	stats = c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
}

func TestGetReturnsCopy(t *testing.T) {
	c := cache.NewMemoryCache(10, 300)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), 0))

	got, err := c.Get(ctx, "key")
	require.NoError(t, err)
	got[0] = 'X'

	again, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), again)
}
