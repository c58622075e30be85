package hub

import (
	"log/slog"
	"sync"

	"github.com/belexwatch/price-watcher/internal/service/store"
)

// observerBuffer bounds how far one observer may lag before events are
// dropped for it. Dropping never evicts the observer; its own disconnect
// is the only removal trigger.
const observerBuffer = 16

// Observer is a live consumer of broadcast events.
type Observer struct {
	ch chan Event
}

// C is the receive side of the observer's event stream. It is closed on
// unsubscribe.
func (o *Observer) C() <-chan Event {
	return o.ch
}

// Hub fans typed events out to all subscribed observers in subscription
// order, at-most-once each.
type Hub struct {
	snapshotFn func() store.Snapshot

	mu  sync.Mutex
	obs []*Observer
}

func New(snapshotFn func() store.Snapshot) *Hub {
	return &Hub{snapshotFn: snapshotFn}
}

// Subscribe registers a new observer. Before any live event it receives a
// "connected" status event followed by a snapshot of all current prices,
// in that order.
func (h *Hub) Subscribe() *Observer {
	o := &Observer{ch: make(chan Event, observerBuffer)}
	o.ch <- NewStatus("connected")
	o.ch <- NewSnapshot(h.snapshotFn())

	h.mu.Lock()
	h.obs = append(h.obs, o)
	total := len(h.obs)
	h.mu.Unlock()

	slog.Info("observer connected", "total", total)
	return o
}

// Unsubscribe removes an observer. Safe to call more than once.
func (h *Hub) Unsubscribe(o *Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, cur := range h.obs {
		if cur == o {
			h.obs = append(h.obs[:i], h.obs[i+1:]...)
			close(o.ch)
			slog.Info("observer disconnected", "total", len(h.obs))
			return
		}
	}
}

// Publish delivers the event to every observer in subscription order. An
// observer whose buffer is full misses this event; delivery to the rest is
// unaffected.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, o := range h.obs {
		select {
		case o.ch <- ev:
		default:
		}
	}
}
