package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrHubClosed = errors.New("hub closed")
	// ErrSlowSubscriber is returned by Publish when at least one subscriber
	// buffer was full and the event was dropped for it.
	ErrSlowSubscriber = errors.New("subscriber buffer full")
)

const defaultHubBuffer = 64

// Hub is an in-process Stream and Publisher. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.Mutex
	buffer int
	subs   map[chan ChangeEvent]struct{}
	closed bool
	done   chan struct{}
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultHubBuffer
	}
	return &Hub{
		buffer: buffer,
		subs:   make(map[chan ChangeEvent]struct{}),
		done:   make(chan struct{}),
	}
}

func (h *Hub) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	ch := make(chan ChangeEvent, h.buffer)
	h.subs[ch] = struct{}{}
	go func() {
		select {
		case <-ctx.Done():
			h.unsubscribe(ch)
		case <-h.done:
		}
	}()
	return ch, nil
}

func (h *Hub) unsubscribe(ch chan ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *Hub) Publish(ctx context.Context, e ChangeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}

	dropped := 0
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%w: dropped for %d of %d subscribers", ErrSlowSubscriber, dropped, len(h.subs))
	}
	return nil
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription. Further Subscribe and Publish calls fail.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	close(h.done)
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	return nil
}
