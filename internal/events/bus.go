package events

import (
	"slices"
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the per-subscriber channel capacity used by NewBus
const DefaultBufferSize = 64

type subscription struct {
	ch    chan Event
	types []EventType // empty means every type
}

func (s *subscription) wants(t EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// Bus fans run lifecycle events out to monitor subscribers.
// Publishing never blocks the benchmark run.
type Bus struct {
	mu         sync.RWMutex
	subs       []*subscription
	bufferSize int
	closed     bool
	dropped    atomic.Uint64
}

// NewBus creates a bus with DefaultBufferSize
func NewBus() *Bus {
	return NewBusWithBuffer(DefaultBufferSize)
}

// NewBusWithBuffer creates a bus whose subscriber channels hold size events
func NewBusWithBuffer(size int) *Bus {
	if size < 1 {
		size = 1
	}
	return &Bus{bufferSize: size}
}

// Subscribe returns a channel receiving the given event types, or all of them
// when none are given. After Close the returned channel is already closed.
func (b *Bus) Subscribe(types ...EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, &subscription{ch: ch, types: slices.Clone(types)})
	return ch
}

// Unsubscribe detaches and closes ch. Unknown channels are ignored.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.subs, func(s *subscription) bool { return s.ch == ch })
	if i < 0 {
		return
	}
	close(b.subs[i].ch)
	b.subs = slices.Delete(b.subs, i, i+1)
}

// Publish delivers event to every interested subscriber.
// A subscriber whose buffer is full misses the event and Dropped is incremented.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, s := range b.subs {
		if !s.wants(event.Type) {
			continue
		}
		select {
		case s.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a buffer was full
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// SubscriberCount returns the number of attached subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later publishes are discarded.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
}
