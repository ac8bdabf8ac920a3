package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/warden/pkg/ports"
)

// subscriberBuffer bounds each subscriber queue. A full queue already holds a pending
// "slot changed" notice, so dropping further ones loses nothing: receivers re-read the slot.
const subscriberBuffer = 16

// Broadcaster implements ports.Broadcaster for managers living in the same process.
type Broadcaster struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers map[uint64]chan ports.Message
}

// NewBroadcaster creates an empty in-process hub.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan ports.Message),
	}
}

// Publish fans the message out without blocking on slow subscribers.
func (b *Broadcaster) Publish(ctx context.Context, msg ports.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			slog.Debug("memory broadcaster: subscriber queue full, dropping", "subscriber", id, "key", msg.Key)
		}
	}
	return nil
}

// Subscribe registers a new subscriber.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan ports.Message, ports.CancelFunc, error) {
	ch := make(chan ports.Message, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			close(ch)
			b.mu.Unlock()
			close(done)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return ch, cancel, nil
}
