package bus

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry() *Registry[string] {
	return New[string]("test", slog.New(slog.DiscardHandler))
}

func TestSubscribeNotify(t *testing.T) {
	r := newRegistry()
	var got [][]string
	r.Subscribe(func(items []string) { got = append(got, items) })

	r.Notify([]string{"b", "a"})

	require.Len(t, got, 1)
	assert.Equal(t, []string{"b", "a"}, got[0])
}

func TestSubscribeDoesNotDeliverCurrentState(t *testing.T) {
	r := newRegistry()
	calls := 0
	r.Subscribe(func([]string) { calls++ })
	assert.Zero(t, calls)
}

func TestNotifyRegistrationOrder(t *testing.T) {
	r := newRegistry()
	var order []int
	for i := 1; i <= 3; i++ {
		r.Subscribe(func([]string) { order = append(order, i) })
	}
	r.Notify(nil)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestUnsubscribeRemovesOnlyThatHandle(t *testing.T) {
	r := newRegistry()
	var a, b int
	// The same function value registered twice gets two independent handles.
	fn := func([]string) { a++ }
	unsubA := r.Subscribe(fn)
	r.Subscribe(fn)
	r.Subscribe(func([]string) { b++ })

	unsubA()
	unsubA()
	r.Notify([]string{"x"})

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 2, r.Len())
}

func TestUnsubscribeBeforeNotify(t *testing.T) {
	r := newRegistry()
	calls := 0
	unsub := r.Subscribe(func([]string) { calls++ })
	unsub()
	r.Notify([]string{"x"})
	assert.Zero(t, calls)
	assert.Zero(t, r.Len())
}

func TestListenerPanicIsIsolated(t *testing.T) {
	r := newRegistry()
	var delivered []string
	r.Subscribe(func([]string) { panic("boom") })
	r.Subscribe(func(items []string) { delivered = items })

	assert.NotPanics(t, func() { r.Notify([]string{"x"}) })
	assert.Equal(t, []string{"x"}, delivered)
}

func TestListenersGetDefensiveCopies(t *testing.T) {
	r := newRegistry()
	var second []string
	r.Subscribe(func(items []string) { items[0] = "mutated" })
	r.Subscribe(func(items []string) { second = items })

	src := []string{"orig"}
	r.Notify(src)

	assert.Equal(t, []string{"orig"}, src)
	assert.Equal(t, []string{"orig"}, second)
}

func TestNotifyNilDeliversEmptySlice(t *testing.T) {
	r := newRegistry()
	var got []string
	r.Subscribe(func(items []string) { got = items })
	r.Notify(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListenerMayUnsubscribeDuringNotify(t *testing.T) {
	r := newRegistry()
	calls := 0
	var unsub Unsubscribe
	unsub = r.Subscribe(func([]string) {
		calls++
		unsub()
	})
	r.Notify(nil)
	r.Notify(nil)
	assert.Equal(t, 1, calls)
}
