// Package sse streams store changes to remote consumers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Change topics. Each change is sent as "<topic>.updated".
const (
	TopicSaved       = "saved"
	TopicRSVPed      = "rsvped"
	TopicNote        = "note"
	TopicFriendNotes = "friend_notes"
)

// StatusEvent is the coalesced hint telling feed cards to re-read badges.
const StatusEvent = "status.updated"

const (
	clientBuffer = 64
	retryMillis  = 3000
	keepAlive    = 25 * time.Second
)

type change struct {
	topic string
	data  any
}

// Broker fans store changes out to connected stream clients.
//
// A single loop goroutine owns the client set, the event sequence and the
// status throttle. Public methods talk to it over channels. A client whose
// buffer is full misses events rather than stalling the loop; the sequence
// number in every frame lets it notice the gap and re-fetch.
type Broker struct {
	statusMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	changeCh      chan change
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. statusThrottle bounds how often the
// status.updated hint is sent.
func NewBroker(statusThrottle time.Duration) *Broker {
	if statusThrottle <= 0 {
		statusThrottle = 2 * time.Second
	}

	b := &Broker{
		statusMin:     statusThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		changeCh:      make(chan change, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

// frame renders one SSE message.
func frame(id uint64, event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", id, event, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var seq uint64
	var lastStatus time.Time

	send := func(event string, data any) {
		seq++
		msg, err := frame(seq, event, data)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- msg:
			default:
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case c := <-b.changeCh:
			send(c.topic+".updated", c.data)

			// Feed cards derive badges from several topics; one hint per
			// interval is enough for them to re-fetch.
			now := time.Now()
			if now.Sub(lastStatus) >= b.statusMin {
				lastStatus = now
				send(StatusEvent, map[string]string{"topic": c.topic})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel. It is idempotent.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client and returns the channel its frames arrive on.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// PublishChange sends "<topic>.updated" with data, followed by a status.updated
// hint unless one went out within the throttle interval. It is a no-op after
// Close.
func (b *Broker) PublishChange(topic string, data any) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- change{topic: topic, data: data}:
	case <-b.stopped:
	}
}

// ServeHTTP is the stream endpoint (GET /api/stream). It tells the client how
// long to wait before reconnecting and sends a comment line periodically so
// idle connections survive proxies.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
