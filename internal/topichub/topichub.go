// Package topichub fans a single incoming topic message out to any
// number of local subscribers, the Go analogue of internal/miniplumber's
// named-pipe Reader fan-out but specialized to wire keys instead of named
// pipes and to a single fixed-size delivery instead of a shell pipeline.
// pkg/hostmux uses it to implement broadcast (MultiSubscription) topic
// delivery (spec.md 4.5).
package topichub

import (
	"sync"

	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

// Subscriber is one registered receiver of a topic's messages.
type Subscriber struct {
	ch chan []byte
	id uint64
}

// C returns the channel messages are delivered on.
func (s *Subscriber) C() <-chan []byte { return s.ch }

// Hub multiplexes broadcast topic delivery across subscribers grouped by
// key. It never blocks a publisher: a subscriber whose channel is full
// simply misses that message, mirroring miniplumber's reader caching,
// which drops rather than backpressures the plumbing graph.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[wirekey.Key]map[uint64]*Subscriber
}

func New() *Hub {
	return &Hub{subs: make(map[wirekey.Key]map[uint64]*Subscriber)}
}

// Subscribe registers a new broadcast subscriber for key with the given
// channel depth.
func (h *Hub) Subscribe(key wirekey.Key, depth int) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscriber{ch: make(chan []byte, depth), id: h.nextID}
	if h.subs[key] == nil {
		h.subs[key] = make(map[uint64]*Subscriber)
	}
	h.subs[key][sub.id] = sub
	return sub
}

// Unsubscribe removes sub from key's fan-out set and closes its channel.
func (h *Hub) Unsubscribe(key wirekey.Key, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subs[key]; ok {
		if _, ok := set[sub.id]; ok {
			delete(set, sub.id)
			close(sub.ch)
		}
		if len(set) == 0 {
			delete(h.subs, key)
		}
	}
}

// Publish delivers body to every current subscriber of key. Returns the
// number of subscribers that received it and the number that were
// skipped because their channel was full.
func (h *Hub) Publish(key wirekey.Key, body []byte) (delivered, dropped int) {
	h.mu.Lock()
	set := h.subs[key]
	targets := make([]*Subscriber, 0, len(set))
	for _, s := range set {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		select {
		case s.ch <- body:
			delivered++
		default:
			dropped++
		}
	}
	return delivered, dropped
}

// SubscriberCount reports how many subscribers are currently registered
// for key.
func (h *Hub) SubscriberCount(key wirekey.Key) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[key])
}

// Keys returns every full key with at least one subscriber. pkg/hostmux
// uses this to implement spec.md 4.5's "search the broadcast list for
// matching key, comparing under VarKey::Key8 folding" against frames
// whose header key may have arrived narrower than Width8.
func (h *Hub) Keys() []wirekey.Key {
	h.mu.Lock()
	defer h.mu.Unlock()
	keys := make([]wirekey.Key, 0, len(h.subs))
	for k := range h.subs {
		keys = append(keys, k)
	}
	return keys
}
