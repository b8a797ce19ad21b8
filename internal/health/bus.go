package health

import "sync"

// defaultSubscriberBuffer is the per-subscriber event buffer size.
// Sized so a UI consumer that briefly stalls does not lose events, while
// keeping the memory cost per subscription trivial.
const defaultSubscriberBuffer = 16

// Bus is a broadcast primitive delivering events to zero or more independent
// subscribers.
//
// Semantics:
//   - A subscriber observes only events published after Subscribe; there is
//     no replay of history.
//   - Publish with no subscribers is a cheap no-op; nothing is buffered for
//     later subscribers.
//   - Each subscriber has a bounded buffer. When it is full, the oldest
//     unconsumed event is dropped to make room — the publisher never blocks
//     on a slow subscriber.
//
// All methods are safe for concurrent use.
type Bus[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	buffer int
}

// Subscription is one subscriber's independent view of a Bus.
type Subscription[T any] struct {
	bus  *Bus[T]
	ch   chan T
	once sync.Once
}

// NewBus creates a Bus whose subscribers buffer up to buffer events each.
// A non-positive buffer selects the default.
func NewBus[T any](buffer int) *Bus[T] {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Bus[T]{
		subs:   make(map[*Subscription[T]]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber and returns its subscription.
// The caller must Close the subscription when done to release it.
func (b *Bus[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		bus: b,
		ch:  make(chan T, b.buffer),
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish delivers the event to every live subscriber. If a subscriber's
// buffer is full, its oldest unconsumed event is discarded first.
func (b *Bus[T]) Publish(event T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.ch <- event:
		default:
			// Buffer full: drop the oldest event, then retry once. The
			// second send can only fail if the subscriber drained and
			// refilled concurrently, in which case the event is dropped.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- event:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Events returns the channel events are delivered on. The channel is closed
// when the subscription is closed.
func (s *Subscription[T]) Events() <-chan T {
	return s.ch
}

// Close unregisters the subscription and closes its event channel.
// Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		close(s.ch)
		s.bus.mu.Unlock()
	})
}
