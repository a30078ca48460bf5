package stream

import (
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
)

// Subject is a hot stream that values are pushed onto directly.
type Subject[T any] struct {
	mu              sync.Mutex
	observers       []*observer[T]
	continueOnError bool
}

// Option configures a Subject.
type Option func(*subjectConfig)

type subjectConfig struct {
	continueOnError bool
}

// WithContinueOnError makes Push deliver to every observer even when some of
// them fail. The failures are combined into the returned error.
func WithContinueOnError(enabled bool) Option {
	return func(c *subjectConfig) {
		c.continueOnError = enabled
	}
}

// NewSubject creates an empty subject.
func NewSubject[T any](opts ...Option) *Subject[T] {
	var c subjectConfig
	for _, opt := range opts {
		opt(&c)
	}
	return &Subject[T]{continueOnError: c.continueOnError}
}

type observer[T any] struct {
	subject *Subject[T]
	fn      Observer[T]
	closed  atomic.Bool
}

// Unsubscribe implements Subscription.
func (o *observer[T]) Unsubscribe() {
	if o.closed.Swap(true) {
		return
	}
	o.subject.remove(o)
}

// Closed implements Subscription.
func (o *observer[T]) Closed() bool {
	return o.closed.Load()
}

// Subscribe registers fn for every value pushed after this call.
func (s *Subject[T]) Subscribe(fn Observer[T]) Subscription {
	o := &observer[T]{subject: s, fn: fn}

	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()

	return o
}

// Push delivers v to the current observers in subscription order.
func (s *Subject[T]) Push(v T) error {
	s.mu.Lock()
	snapshot := make([]*observer[T], len(s.observers))
	copy(snapshot, s.observers)
	s.mu.Unlock()

	var errs error
	for _, o := range snapshot {
		// Removed during this push before being reached
		if o.closed.Load() {
			continue
		}
		if err := o.fn(v); err != nil {
			if !s.continueOnError {
				return err
			}
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Len returns the number of live observers.
func (s *Subject[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

// remove drops o from the observer list, preserving order.
func (s *Subject[T]) remove(o *observer[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, cur := range s.observers {
		if cur == o {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}
