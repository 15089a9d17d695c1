// Package statushub provides a fan-out hub for backend status streams.
package statushub

import (
	"context"
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// Hub broadcasts values to subscribers. Each subscriber gets its own buffered
// channel; a subscriber that falls behind loses values rather than blocking
// the publisher. New subscribers first receive the latest published value.
type Hub[T any] struct {
	mu     sync.Mutex
	name   string
	subs   map[string]chan T
	last   T
	hasAny bool
	buffer int
	closed bool
	done   chan struct{} // Closed by Close
}

// New creates a hub. name is used in logs.
func New[T any](name string, buffer int) *Hub[T] {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub[T]{
		name:   name,
		subs:   make(map[string]chan T),
		buffer: buffer,
		done:   make(chan struct{}),
	}
}

// Subscribe returns a channel of published values. The channel is closed
// when ctx is done or the hub is closed.
func (h *Hub[T]) Subscribe(ctx context.Context) <-chan T {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan T, h.buffer)
	if h.closed {
		close(ch)
		return ch
	}

	id := uuid.New().String()
	h.subs[id] = ch
	if h.hasAny {
		ch <- h.last
	}

	go func() {
		select {
		case <-ctx.Done():
			h.unsubscribe(id)
		case <-h.done:
		}
	}()

	return ch
}

// Publish sends v to every subscriber without blocking.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.last = v
	h.hasAny = true

	for id, ch := range h.subs {
		select {
		case ch <- v:
		default:
			zlog.Warn().Msgf("statushub: subscriber too slow, dropping value: hub=%s subscriber=%s", h.name, id)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub[T]) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel. Publish after Close is a no-op.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *Hub[T]) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}
