// Package fanout is an in-process registry of per-key change callbacks.
// It is the single-instance notification broker and the local delivery
// stage of the Redis one.
package fanout

import (
	"context"
	"sync"
)

type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]func()
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]func())}
}

// Subscribe registers fn for key. The returned cancel is safe to call more than once.
func (h *Hub) Subscribe(key string, fn func()) (cancel func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[key] == nil {
		h.subs[key] = make(map[uint64]func())
	}
	h.subs[key][id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[key], id)
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
			h.mu.Unlock()
		})
	}
}

// Publish runs every callback registered for key on the caller's goroutine.
func (h *Hub) Publish(_ context.Context, key string) error {
	h.Emit(key)
	return nil
}

// Emit is Publish without the context, for message pumps.
func (h *Hub) Emit(key string) {
	h.mu.RLock()
	fns := make([]func(), 0, len(h.subs[key]))
	for _, fn := range h.subs[key] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// Len reports how many callbacks are registered for key.
func (h *Hub) Len(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[key])
}
