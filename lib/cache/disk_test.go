package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCacheSetGet(t *testing.T) {
	c := NewDiskCache(t.TempDir())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "gocomet:leaderboard:stats", []byte(`{"total_players":3}`), time.Minute))

	value, err := c.Get(ctx, "gocomet:leaderboard:stats")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"total_players":3}`), value)
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))

	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	// Expired entry is erased, a second read still misses.
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestDiskCacheDelete(t *testing.T) {
	c := NewDiskCache(t.TempDir())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Delete(ctx, "a", "missing"))

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}
