package hostmux

import (
	"sync"
	"time"

	"github.com/sandia-minimega/icdrpc/v2/internal/topichub"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

// Subscription is an exclusive, single-consumer topic subscription.
// Establishing a second exclusive subscription on the same key closes
// this one (spec.md 4.5).
type Subscription struct {
	ch chan []byte
}

func (s *Subscription) C() <-chan []byte { return s.ch }

// MultiSubscription is a broadcast, many-consumer topic subscription.
type MultiSubscription struct {
	sub *topichub.Subscriber
}

func (m *MultiSubscription) C() <-chan []byte { return m.sub.C() }

// exclusiveRegistry tracks at most one Subscription per full topic key.
// Lookups during delivery compare the registered Width8 key against
// whatever width the incoming frame's header actually carries, folding
// per VarKey.Equal — exactly the "comparing under VarKey::Key8 folding"
// rule spec.md 4.5 specifies for the broadcast list, applied here too so
// both lists behave consistently regardless of negotiated wire width.
type exclusiveRegistry struct {
	mu   sync.Mutex
	subs map[wirekey.Key]*Subscription
}

func newExclusiveRegistry() *exclusiveRegistry {
	return &exclusiveRegistry{subs: make(map[wirekey.Key]*Subscription)}
}

// Subscribe replaces any existing exclusive subscription for key, closing
// its channel so the previous receiver's recv observes end-of-stream.
func (r *exclusiveRegistry) Subscribe(key wirekey.Key, depth int) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.subs[key]; ok {
		close(old.ch)
	}
	sub := &Subscription{ch: make(chan []byte, depth)}
	r.subs[key] = sub
	return sub
}

// deliver implements the try_send-then-maybe-wait policy from spec.md
// 4.5: drop immediately if timeout is zero, otherwise race the send
// against a timer. Returns true if a matching subscription was found
// (whether or not delivery succeeded).
func (r *exclusiveRegistry) deliver(hdrKey wirekey.VarKey, body []byte, timeout time.Duration) bool {
	r.mu.Lock()
	var sub *Subscription
	for full, s := range r.subs {
		if wirekey.NewVarKey8(full).Equal(hdrKey) {
			sub = s
			break
		}
	}
	r.mu.Unlock()
	if sub == nil {
		return false
	}

	select {
	case sub.ch <- body:
		return true
	default:
	}

	if timeout <= 0 {
		return true
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case sub.ch <- body:
	case <-t.C:
	}
	return true
}

func (r *exclusiveRegistry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, sub := range r.subs {
		close(sub.ch)
		delete(r.subs, k)
	}
}
