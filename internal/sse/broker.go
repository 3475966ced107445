// Package sse implements a Server-Sent Events broker for live roster updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/rollcall/internal/models"
)

// Event types.
const (
	EventStudentUpdated = "student.updated"
	EventSummaryUpdated = "summary.updated"
	EventRosterReset    = "roster.reset"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type rosterEventReq struct {
	kind    string
	id      string
	version uint64
	summary models.Summary
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients, summary throttle timestamp, pending summary, latest roster version).
// Public methods communicate with this loop through channels, so no mutexes
// are required.
type Broker struct {
	summaryMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	rosterEventCh chan rosterEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. summary.updated events are sent at most
// once per summaryThrottle; the counts of the highest roster version seen are
// always delivered last, and counts older than that are dropped.
func NewBroker(summaryThrottle time.Duration) *Broker {
	if summaryThrottle <= 0 {
		summaryThrottle = 2 * time.Second
	}

	b := &Broker{
		summaryMin:    summaryThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		rosterEventCh: make(chan rosterEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastSummary time.Time
	var pending *models.Summary
	var latestVersion uint64
	var latest models.Summary
	var trailing *time.Timer
	var trailingCh <-chan time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	sendSummary := func(sum models.Summary) {
		now := time.Now()
		if wait := b.summaryMin - now.Sub(lastSummary); wait > 0 {
			pending = &sum
			if trailing == nil {
				trailing = time.NewTimer(wait)
				trailingCh = trailing.C
			}
			return
		}
		lastSummary = now
		broadcast(Event{Type: EventSummaryUpdated, Data: sum})
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
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

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.rosterEventCh:
			fresh := req.version >= latestVersion
			if fresh {
				latestVersion, latest = req.version, req.summary
			}
			switch req.kind {
			case EventStudentUpdated:
				broadcast(Event{Type: EventStudentUpdated, Data: map[string]string{"id": req.id}})
				if fresh {
					sendSummary(latest)
				}
			case EventRosterReset:
				// A reset invalidates everything; send counts right away.
				pending = nil
				lastSummary = time.Now()
				broadcast(Event{Type: EventRosterReset, Data: latest})
			}

		case <-trailingCh:
			trailing, trailingCh = nil, nil
			if pending != nil {
				sum := *pending
				pending = nil
				lastSummary = time.Now()
				broadcast(Event{Type: EventSummaryUpdated, Data: sum})
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

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
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

// publish sends an event to all connected clients.
func (b *Broker) publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishRosterEvent publishes a roster change. kind is EventStudentUpdated
// (followed by a throttled summary.updated) or EventRosterReset. version is
// the roster version carrying summary; changes may arrive out of order.
func (b *Broker) PublishRosterEvent(kind, id string, version uint64, summary models.Summary) {
	if b.closed.Load() {
		return
	}
	select {
	case b.rosterEventCh <- rosterEventReq{kind: kind, id: id, version: version, summary: summary}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
