package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCached_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	c := NewCached(inner, time.Minute)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", "v1"))

	// Bypass the cache; a cached read must still see the old value.
	require.NoError(t, inner.Set(ctx, "k", "v2"))
	v, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	c.Invalidate("k")
	v, _, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

func TestCached_MissesAreNotCached(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	c := NewCached(inner, time.Minute)
	defer c.Close()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, inner.Set(ctx, "k", "late"))
	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "late", v)
}

func TestCached_RemoveEvicts(t *testing.T) {
	ctx := context.Background()
	c := NewCached(NewMemory(), time.Minute)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", "v"))
	require.NoError(t, c.Remove(ctx, "k"))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCached_EntriesExpire(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	c := NewCached(inner, 20*time.Millisecond)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", "v1"))
	require.NoError(t, inner.Set(ctx, "k", "v2"))

	assert.Eventually(t, func() bool {
		v, _, err := c.Get(ctx, "k")
		return err == nil && v == "v2"
	}, time.Second, 10*time.Millisecond)
}
