package kv

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyRecorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *keyRecorder) add(key string) {
	r.mu.Lock()
	r.keys = append(r.keys, key)
	r.mu.Unlock()
}

func (r *keyRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

func startWatch(t *testing.T, w Watchable) *keyRecorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	rec := &keyRecorder{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Watch(ctx, quietLogger(), rec.add)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	return rec
}

func TestWatch_ReportsExternalWrite(t *testing.T) {
	f := tempFile(t)
	rec := startWatch(t, f)

	require.NoError(t, os.WriteFile(filepath.Join(f.Root(), "SAVED_EVENTS_V1.json"), []byte(`[{"id":"x"}]`), 0o644))

	assert.Eventually(t, func() bool {
		return slices.Contains(rec.snapshot(), "SAVED_EVENTS_V1")
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatch_ReportsExternalRemove(t *testing.T) {
	f := tempFile(t)
	require.NoError(t, f.Set(context.Background(), "k", "v"))
	rec := startWatch(t, f)

	require.NoError(t, os.Remove(filepath.Join(f.Root(), "k.json")))

	assert.Eventually(t, func() bool {
		return slices.Contains(rec.snapshot(), "k")
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatch_IgnoresOwnWrites(t *testing.T) {
	f := tempFile(t)
	rec := startWatch(t, f)

	ctx := context.Background()
	require.NoError(t, f.Set(ctx, "k", "one"))
	require.NoError(t, f.Set(ctx, "k", "two"))
	require.NoError(t, f.Remove(ctx, "k"))

	time.Sleep(400 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestWatch_CachedInvalidatesBeforeCallback(t *testing.T) {
	f := tempFile(t)
	c := NewCached(f, time.Minute)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "ours"))

	seen := make(chan string, 1)
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = c.Watch(wctx, quietLogger(), func(key string) {
			v, _, _ := c.Get(ctx, key)
			select {
			case seen <- v:
			default:
			}
		})
	}()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(f.Root(), "k.json"), []byte("theirs"), 0o644))

	select {
	case v := <-seen:
		assert.Equal(t, "theirs", v)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for watch callback")
	}
}
