package kv

import (
	"context"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Cached is a write-through read cache in front of another Backend. Absent
// keys are never cached.
type Cached struct {
	inner Backend
	cache *ttlcache.Cache[string, string]
}

// NewCached wraps inner with a cache whose entries expire after ttl.
func NewCached(inner Backend, ttl time.Duration) *Cached {
	cache := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go cache.Start()
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) Get(ctx context.Context, key string) (string, bool, error) {
	if item := c.cache.Get(key); item != nil {
		return item.Value(), true, nil
	}
	v, ok, err := c.inner.Get(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	c.cache.Set(key, v, ttlcache.DefaultTTL)
	return v, true, nil
}

func (c *Cached) Set(ctx context.Context, key, value string) error {
	if err := c.inner.Set(ctx, key, value); err != nil {
		c.cache.Delete(key)
		return err
	}
	c.cache.Set(key, value, ttlcache.DefaultTTL)
	return nil
}

func (c *Cached) Remove(ctx context.Context, key string) error {
	c.cache.Delete(key)
	return c.inner.Remove(ctx, key)
}

// Invalidate drops key from the cache so the next Get reaches the inner backend.
func (c *Cached) Invalidate(key string) {
	c.cache.Delete(key)
}

// Watch forwards to the inner backend when it is Watchable, invalidating the
// cache before each callback. Otherwise it blocks until ctx is done.
func (c *Cached) Watch(ctx context.Context, logger *slog.Logger, cb func(key string)) error {
	w, ok := c.inner.(Watchable)
	if !ok {
		<-ctx.Done()
		return nil
	}
	return w.Watch(ctx, logger, func(key string) {
		c.Invalidate(key)
		cb(key)
	})
}

func (c *Cached) Close() error {
	c.cache.Stop()
	return c.inner.Close()
}
