package harness

import (
	"sync"
	"sync/atomic"

	"termharness/internal/terminal"
)

const subscriberBuffer = 16

// broadcaster fans snapshots out to subscribers without blocking on slow
// listeners. A subscriber that falls behind loses intermediate snapshots
// but always sees the latest one.
type broadcaster struct {
	mu          sync.Mutex
	subscribers map[uint64]chan terminal.Snapshot
	nextSubID   uint64
	closed      bool
	closeOnce   sync.Once
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		subscribers: make(map[uint64]chan terminal.Snapshot),
	}
}

func (b *broadcaster) Subscribe() (<-chan terminal.Snapshot, func()) {
	ch := make(chan terminal.Snapshot, subscriberBuffer)
	id := atomic.AddUint64(&b.nextSubID, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subscribers[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
		b.mu.Unlock()
	}

	return ch, cancel
}

func (b *broadcaster) HasSubscribers() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers) > 0
}

func (b *broadcaster) Broadcast(snapshot terminal.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- snapshot:
			continue
		default:
		}
		// Full: drop the oldest queued snapshot to make room.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func (b *broadcaster) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		for id, ch := range b.subscribers {
			delete(b.subscribers, id)
			close(ch)
		}
		b.mu.Unlock()
	})
}
