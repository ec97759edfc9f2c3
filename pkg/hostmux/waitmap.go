package hostmux

import (
	"sync"

	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

// waitEntry is one outstanding (key, seq) wait. Call always registers at
// the endpoint's full Width8 key, but a reply narrowed to the connection's
// negotiated wire width still has to match it — matching is done with
// VarKey.Equal, which folds the wider side down, the same rule
// exclusiveRegistry.deliver and the topic broadcast path already apply
// (spec.md 3, 4.5).
type waitEntry struct {
	key wirekey.VarKey
	seq wirekey.VarSeq
	ch  chan []byte
}

type waitMap struct {
	mu     sync.Mutex
	closed bool
	nextID uint64
	slots  map[uint64]*waitEntry
}

func newWaitMap() *waitMap {
	return &waitMap{slots: make(map[uint64]*waitEntry)}
}

// Register creates a one-shot delivery slot for (key, seq). Returns nil
// if the map has already been closed (spec.md 4.5: "If the correlator
// closes, return HostErr::Closed").
func (w *waitMap) Register(key wirekey.VarKey, seq wirekey.VarSeq) chan []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	ch := make(chan []byte, 1)
	w.nextID++
	w.slots[w.nextID] = &waitEntry{key: key, seq: seq, ch: ch}
	return ch
}

// Cancel removes a registered slot without delivering to it, used when
// the caller's context is done before a response arrives (spec.md 4.5,
// "Cancellation").
func (w *waitMap) Cancel(key wirekey.VarKey, seq wirekey.VarSeq) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, e := range w.slots {
		if e.key.Equal(key) && e.seq.Equal(seq) {
			delete(w.slots, id)
			return
		}
	}
}

// Deliver resolves the slot for (key, seq) with body, if one is
// registered. Returns false if nothing was waiting.
func (w *waitMap) Deliver(key wirekey.VarKey, seq wirekey.VarSeq, body []byte) bool {
	w.mu.Lock()
	var match *waitEntry
	for id, e := range w.slots {
		if e.key.Equal(key) && e.seq.Equal(seq) {
			match = e
			delete(w.slots, id)
			break
		}
	}
	w.mu.Unlock()
	if match == nil {
		return false
	}
	match.ch <- body
	return true
}

// Close marks the map closed and drains every pending slot so in-flight
// callers unblock with HostErr::Closed rather than waiting forever.
func (w *waitMap) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	for id, e := range w.slots {
		close(e.ch)
		delete(w.slots, id)
	}
}
