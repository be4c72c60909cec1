// Package sse implements a Server-Sent Events broker for library and
// session updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Event is one message for subscribers. Scope narrows delivery to clients
// following a single session; it is not sent on the wire.
type Event struct {
	Type  string `json:"type"`
	Data  any    `json:"data"`
	Scope string `json:"-"`
}

// Event types emitted for library changes.
const (
	TypeScoreCreated   = "score.created"
	TypeScoreUpdated   = "score.updated"
	TypeScoreDeleted   = "score.deleted"
	TypeLibraryUpdated = "library.updated"
)

const (
	keepAlive   = 15 * time.Second
	historySize = 128
	clientQueue = 64
)

var scoreTypes = map[string]string{
	"created": TypeScoreCreated,
	"updated": TypeScoreUpdated,
	"deleted": TypeScoreDeleted,
}

// Filter selects the events a subscriber receives. A nil Topics map means
// every topic. The topic of an event is its type up to the first dot.
type Filter struct {
	Topics  map[string]bool
	Session string
}

func (f Filter) match(fr frame) bool {
	if f.Topics != nil && !f.Topics[fr.topic] {
		return false
	}
	return f.Session == "" || fr.scope == "" || fr.scope == f.Session
}

// FilterFromRequest reads ?topics=score,session and ?session=<id>.
func FilterFromRequest(r *http.Request) Filter {
	q := r.URL.Query()
	f := Filter{Session: q.Get("session")}
	if raw := q.Get("topics"); raw != "" {
		f.Topics = map[string]bool{}
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Topics[t] = true
			}
		}
	}
	return f
}

type frame struct {
	id    uint64
	topic string
	scope string
	raw   []byte
}

type client struct {
	ch     chan []byte
	filter Filter
}

// Broker fans events out to SSE clients. It keeps the most recent frames so
// a reconnecting client can resume from its Last-Event-ID.
type Broker struct {
	libraryMin time.Duration

	mu          sync.Mutex
	clients     map[*client]struct{}
	seq         uint64
	history     []frame
	lastLibrary time.Time
	closed      bool
}

// NewBroker creates a broker that emits library.updated at most once per
// libraryThrottle.
func NewBroker(libraryThrottle time.Duration) *Broker {
	if libraryThrottle <= 0 {
		libraryThrottle = 2 * time.Second
	}
	return &Broker{
		libraryMin: libraryThrottle,
		clients:    make(map[*client]struct{}),
	}
}

// Subscribe registers a client. Frames newer than after that are still in
// history are queued first. The returned func unsubscribes and closes the
// channel; it is safe to call more than once.
func (b *Broker) Subscribe(f Filter, after uint64) (<-chan []byte, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := &client{ch: make(chan []byte, clientQueue+historySize), filter: f}
	if b.closed {
		close(c.ch)
		return c.ch, func() {}
	}
	if after > 0 {
		for _, fr := range b.history {
			if fr.id > after && f.match(fr) {
				c.ch <- fr.raw
			}
		}
	}
	b.clients[c] = struct{}{}

	return c.ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.clients[c]; ok {
			delete(b.clients, c)
			close(c.ch)
		}
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects every client. Later publishes are dropped.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for c := range b.clients {
		close(c.ch)
	}
	b.clients = nil
}

// Publish sends an event to every matching client. Clients whose queue is
// full miss the frame.
func (b *Broker) Publish(ev Event) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return
	}
	topic, _, _ := strings.Cut(ev.Type, ".")

	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishLocked(ev.Type, topic, ev.Scope, payload)
}

func (b *Broker) publishLocked(typ, topic, scope string, payload []byte) {
	if b.closed {
		return
	}
	b.seq++
	fr := frame{
		id:    b.seq,
		topic: topic,
		scope: scope,
		raw:   fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", b.seq, typ, payload),
	}
	if len(b.history) == historySize {
		b.history = append(b.history[:0], b.history[1:]...)
	}
	b.history = append(b.history, fr)

	for c := range b.clients {
		if !c.filter.match(fr) {
			continue
		}
		select {
		case c.ch <- fr.raw:
		default:
		}
	}
}

// PublishScoreEvent publishes a score change followed by a throttled
// library.updated. kind is one of created, updated or deleted; anything
// else is ignored.
func (b *Broker) PublishScoreEvent(kind, path string) {
	typ, ok := scoreTypes[kind]
	if !ok {
		return
	}
	payload, err := json.Marshal(map[string]string{"path": path})
	if err != nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishLocked(typ, "score", "", payload)

	now := time.Now()
	if now.Sub(b.lastLibrary) >= b.libraryMin {
		b.lastLibrary = now
		b.publishLocked(TypeLibraryUpdated, "library", "", []byte("{}"))
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	after, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)
	ch, cancel := b.Subscribe(FilterFromRequest(r), after)
	defer cancel()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			_, _ = w.Write([]byte(": ping\n\n"))
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
		}
		flusher.Flush()
	}
}
