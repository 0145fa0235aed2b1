package monitor

import (
	"sync"
	"sync/atomic"
)

// Subscriber is one streaming consumer of rendered frames.
type Subscriber struct {
	ch chan []byte
}

// C is the receive side; it closes when the subscriber is removed.
func (s *Subscriber) C() <-chan []byte {
	return s.ch
}

// Hub fans rendered frames out to streaming subscribers. Publish never
// blocks: a subscriber that stops draining its buffer loses frames, not
// the publisher. Every frame is self-contained, so a dropped frame is
// superseded by the next one.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscriber]struct{}
	buffer  int
	dropped uint64
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 4
	}
	return &Hub{
		subs:   map[*Subscriber]struct{}{},
		buffer: buffer,
	}
}

func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan []byte, h.buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Publish(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- payload:
		default:
			// Drop when the subscriber is slow; the publisher must not block.
			atomic.AddUint64(&h.dropped, 1)
		}
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped reports frames discarded because a subscriber buffer was full.
func (h *Hub) Dropped() uint64 {
	return atomic.LoadUint64(&h.dropped)
}
