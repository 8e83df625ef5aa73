package notify

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Bus delivers toasts to every subscriber without blocking the caller.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan Toast
	dropped     atomic.Int64
}

func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]chan Toast),
	}
}

func (b *Bus) Notify(t Toast) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- t:
		default:
			// slow subscriber; the toast is lost for it only
			b.dropped.Add(1)
		}
	}
}

// Subscribe returns a buffered channel of toasts and a function that closes it.
func (b *Bus) Subscribe() (<-chan Toast, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Toast, 64)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, exists := b.subscribers[id]; exists {
			close(ch)
			delete(b.subscribers, id)
		}
	}

	return ch, unsubscribe
}

// Dropped reports how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}
