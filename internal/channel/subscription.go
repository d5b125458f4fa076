package channel

import "github.com/soyeahso/livehub/internal/live"

// subscriptionBuffer is the per-subscriber event buffer. A subscriber
// that falls this far behind starts losing events (logged).
const subscriptionBuffer = 64

// Subscription is one observer's view of a channel's event stream.
// The stream is infinite until the channel shuts down; it is not
// replayable — a new Subscription starts from the current state.
type Subscription struct {
	id      int
	ch      chan live.Event
	channel *Channel
}

// Events returns the subscription's event stream. The channel is
// closed when the subscription is closed or the channel reaches a
// terminal state.
func (s *Subscription) Events() <-chan live.Event {
	return s.ch
}

// Close stops observing the channel. When the last subscription
// closes, the channel releases its underlying connection immediately.
// Safe to call more than once.
func (s *Subscription) Close() {
	s.channel.unsubscribe(s.id)
}
