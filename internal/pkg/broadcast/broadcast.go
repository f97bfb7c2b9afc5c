// Package broadcast fans server-sent events out to connected subscribers.
package broadcast

import (
	"sync"

	"github.com/gin-contrib/sse"
)

const subscriberBuffer = 16

// Broadcaster is a fan-out registry of SSE subscribers. Publishing never
// blocks: a subscriber that cannot keep up has events dropped rather than
// stalling the publisher.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan sse.Event]struct{}
}

func New() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan sse.Event]struct{}),
	}
}

// Subscribe registers a new subscriber. The returned cancel function must be
// called when the subscriber disconnects.
func (b *Broadcaster) Subscribe() (<-chan sse.Event, func()) {
	ch := make(chan sse.Event, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
	}

	return ch, cancel
}

// Publish delivers the event to every current subscriber.
func (b *Broadcaster) Publish(event string, data any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- sse.Event{Event: event, Data: data}:
		default:
		}
	}
}

// Len returns the number of connected subscribers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscribers)
}
