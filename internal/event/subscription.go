package event

import (
	"sync/atomic"

	"github.com/dshills/eventbus/internal/event/stream"
	"github.com/dshills/eventbus/internal/event/topic"
)

// Subscription is the unsubscribe handle of one handler registration.
// It satisfies stream.Subscription so it can be owned by a Group.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Topic returns the subscribed tag.
	Topic() topic.Topic

	// Unsubscribe removes exactly this registration.
	// Calling it more than once is a no-op.
	Unsubscribe()

	// Closed reports whether the subscription has been removed.
	Closed() bool
}

// subscription is the internal implementation of Subscription.
type subscription struct {
	id     string
	topic  topic.Topic
	inner  stream.Subscription
	bus    *Bus
	closed atomic.Bool
}

// ID returns the subscription ID.
func (s *subscription) ID() string {
	return s.id
}

// Topic returns the subscribed tag.
func (s *subscription) Topic() topic.Topic {
	return s.topic
}

// Unsubscribe removes the registration from the bus stream.
func (s *subscription) Unsubscribe() {
	if s.closed.Swap(true) {
		return
	}
	s.inner.Unsubscribe()
	s.bus.released()
}

// Closed reports whether Unsubscribe has been called.
func (s *subscription) Closed() bool {
	return s.closed.Load()
}
