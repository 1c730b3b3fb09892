package devwatch

import "sync"

// broadcastCapacity bounds each subscriber's buffered channel. A
// subscriber that falls behind has its oldest pending hash dropped rather
// than blocking the publisher.
const broadcastCapacity = 256

// Broadcaster fans a stream of full-build hashes out to every connected
// HMR client. It has no notion of history: a subscriber that joins mid-run
// sees only hashes published after it subscribed, and a slow subscriber
// loses its oldest unread hash before a new one is ever dropped on the
// floor silently for the publisher's sake.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan uint64]struct{}
}

// NewBroadcaster returns an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: map[chan uint64]struct{}{}}
}

// Subscribe registers a new listener and returns its channel plus an
// unsubscribe function the caller must call exactly once when done.
func (b *Broadcaster) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, broadcastCapacity)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Publish sends hash to every current subscriber. A subscriber whose
// buffer is full has its oldest entry evicted to make room — no caller
// ever blocks here, and laggers skip forward rather than stall the whole
// watch loop.
func (b *Broadcaster) Publish(hash uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- hash:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- hash:
			default:
			}
		}
	}
}
