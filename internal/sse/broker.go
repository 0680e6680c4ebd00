// Package sse implements a Server-Sent Events broker that tells open readers
// when projects change.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Project change kinds.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// ProjectEvent is the payload of project.* events.
type ProjectEvent struct {
	Slug     string `json:"slug"`
	Checksum string `json:"checksum,omitempty"`
}

// reconnectMillis is sent as the retry field on connect.
const reconnectMillis = 3000

type subscription struct {
	ch   chan []byte
	slug string
}

// delivery is one encoded frame and the slug it concerns. An empty slug
// reaches every client; otherwise only unfiltered clients and clients
// following that slug receive it.
type delivery struct {
	frame func(seq uint64) []byte
	slug  string
	// wide frames go to unfiltered clients only.
	wide bool
}

type projectEventReq struct {
	kind string
	ev   ProjectEvent
}

// Option configures a Broker.
type Option func(*Broker)

// WithHeartbeat makes ServeHTTP write a comment line every d so idle
// connections survive proxies. Zero disables it.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) { b.heartbeat = d }
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients, index throttle timestamp, event id). Public methods communicate with this loop
// through channels, so no mutexes are required.
type Broker struct {
	indexMin  time.Duration
	heartbeat time.Duration

	subscribeCh    chan subscription
	unsubscribeCh  chan chan []byte
	publishCh      chan Event
	projectEventCh chan projectEventReq
	countReqCh     chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. index.updated events are sent at most
// once per indexThrottle.
func NewBroker(indexThrottle time.Duration, opts ...Option) *Broker {
	if indexThrottle <= 0 {
		indexThrottle = 2 * time.Second
	}

	b := &Broker{
		indexMin:       indexThrottle,
		heartbeat:      15 * time.Second,
		subscribeCh:    make(chan subscription),
		unsubscribeCh:  make(chan chan []byte),
		publishCh:      make(chan Event, 256),
		projectEventCh: make(chan projectEventReq, 256),
		countReqCh:     make(chan chan int),
		stopCh:         make(chan struct{}),
		stopped:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

func encode(event Event) func(seq uint64) []byte {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil
	}
	return func(seq uint64) []byte {
		return []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))
	}
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]string)
	var lastIndex time.Time
	var seq uint64

	send := func(d delivery) {
		if d.frame == nil {
			return
		}
		seq++
		raw := d.frame(seq)
		for ch, follow := range clients {
			switch {
			case follow == "":
			case d.wide:
				continue
			case d.slug != "" && d.slug != follow:
				continue
			}
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
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

		case sub := <-b.subscribeCh:
			clients[sub.ch] = sub.slug

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			send(delivery{frame: encode(event)})

		case req := <-b.projectEventCh:
			switch req.kind {
			case KindCreated, KindUpdated, KindDeleted:
				send(delivery{
					frame: encode(Event{Type: "project." + req.kind, Data: req.ev}),
					slug:  req.ev.Slug,
				})
			default:
				continue
			}

			now := time.Now()
			if now.Sub(lastIndex) >= b.indexMin {
				lastIndex = now
				send(delivery{frame: encode(Event{Type: "index.updated", Data: map[string]string{}}), wide: true})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel. A non-empty slug
// limits the client to events about that project.
func (b *Broker) Subscribe(slug string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, slug: slug}:
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

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishProjectEvent publishes a project change and a throttled
// index.updated event. Unknown kinds are dropped.
func (b *Broker) PublishProjectEvent(kind string, ev ProjectEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.projectEventCh <- projectEventReq{kind: kind, ev: ev}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). The optional
// slug query parameter follows a single project, as an open article does.
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
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", reconnectMillis)
	flusher.Flush()

	ch := b.Subscribe(r.URL.Query().Get("slug"))
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
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
