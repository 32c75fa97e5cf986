package realtime

import (
	"log/slog"
	"sync"
	"time"
)

const defaultSubscriberQueue = 64

// Hub broadcasts feed events to all current subscribers. Publishing never
// blocks: a subscriber whose queue is full misses the event.
type Hub struct {
	log       *slog.Logger
	queueSize int

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan Event
	closed bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithSubscriberQueue sets the per-subscriber buffer size.
func WithSubscriberQueue(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

// NewHub constructs a Hub.
func NewHub(log *slog.Logger, opts ...HubOption) *Hub {
	if log == nil {
		log = slog.Default()
	}
	h := &Hub{
		log:       log,
		queueSize: defaultSubscriberQueue,
		subs:      make(map[uint64]chan Event),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Subscribe registers a new subscriber and returns its event channel plus a
// cancel function. Cancel is idempotent and closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.queueSize)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber that has queue room.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Debug("realtime.hub.drop", "subscriber", id, "kind", ev.Kind)
		}
	}
}

// Notify adapts Publish to the social handlers' notifier shape.
func (h *Hub) Notify(kind string, data any) {
	h.Publish(Event{Kind: kind, Data: data, At: time.Now().UTC()})
}

// Close drops all subscribers and closes their channels. Later Subscribe
// calls get an already-closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
