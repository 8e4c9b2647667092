package notify

import (
	"context"
	"errors"
	"sync"
)

// MessageType tags a control message.
type MessageType string

const (
	// TypeNewVersionAvailable announces that a new version finished
	// installing. Sent to every active instance, controlled or not.
	TypeNewVersionAvailable MessageType = "NEW_VERSION_AVAILABLE"

	// TypeSkipWaiting asks the worker to take control immediately.
	TypeSkipWaiting MessageType = "SKIP_WAITING"

	// TypeCheckForUpdate forces an update check on demand.
	TypeCheckForUpdate MessageType = "CHECK_FOR_UPDATE"
)

// Message is a tagged control message.
type Message struct {
	Type    MessageType `json:"type"`
	Version string      `json:"version,omitempty"`
}

// ErrUnknownType is returned for messages the worker does not handle.
var ErrUnknownType = errors.New("notify: unknown message type")

// Broadcaster delivers a message to every active subscriber.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: delivery is best-effort; Broadcast must not block on slow
//   receivers.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg Message)
}

// Hub is an in-process Broadcaster with channel-backed subscribers.
// Messages to a subscriber whose buffer is full are dropped rather
// than blocking the broadcast.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Message
	nextID int
	buffer int
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBuffer sets the per-subscriber channel buffer. Default: 8.
func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{subs: make(map[int]chan Message), buffer: 8}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a new subscriber. The returned cancel function
// removes the subscription and closes the channel; it is idempotent.
func (h *Hub) Subscribe() (<-chan Message, func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan Message, h.buffer)
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Broadcast delivers msg to every subscriber. Non-blocking; a full
// subscriber buffer drops the message for that subscriber only.
func (h *Hub) Broadcast(_ context.Context, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			// subscriber not draining; drop rather than block
		}
	}
}

// Len reports the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// NopBroadcaster discards every message.
type NopBroadcaster struct{}

// Broadcast implements Broadcaster.
func (NopBroadcaster) Broadcast(context.Context, Message) {}

// Ensure implementations satisfy Broadcaster
var (
	_ Broadcaster = (*Hub)(nil)
	_ Broadcaster = NopBroadcaster{}
)
