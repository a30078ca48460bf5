package event

import (
	"sync"

	"github.com/dshills/eventbus/internal/event/stream"
)

// Group owns the subscriptions made through it so they can be released with
// a single Unsubscribe call. It adds no delivery behavior of its own.
//
// A Group is typically owned by a component that holds several
// subscriptions for its whole lifetime:
//
//	g := event.NewGroup(bus)
//	event.GroupSubscribe(g, SessionStarted, onStart)
//	event.GroupSubscribe(g, SessionEnded, onEnd)
//	...
//	g.Unsubscribe()
type Group struct {
	bus *Bus

	mu        sync.Mutex
	composite *stream.Composite
	closed    bool
}

// NewGroup creates an empty group on bus.
func NewGroup(bus *Bus) *Group {
	return &Group{bus: bus}
}

// Bus returns the bus the group subscribes on.
func (g *Group) Bus() *Bus {
	return g.bus
}

// Add takes ownership of sub. It fails with ErrGroupClosed after the group
// was released, in which case sub is unsubscribed.
func (g *Group) Add(sub Subscription) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		sub.Unsubscribe()
		return ErrGroupClosed
	}
	if g.composite == nil {
		g.composite = stream.NewComposite()
	}
	g.composite.Add(sub)
	return nil
}

// Emit publishes e on the group's bus unchanged.
func (g *Group) Emit(e Eventer) error {
	return g.bus.Emit(e)
}

// Unsubscribe releases every subscription added through this group.
// It is safe to call on an empty group and more than once. Subscriptions made
// directly on the bus or through another group are not affected.
func (g *Group) Unsubscribe() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	composite := g.composite
	g.mu.Unlock()

	if composite != nil {
		composite.Unsubscribe()
	}
}

// UnsubscribeAll is an alias for Unsubscribe.
func (g *Group) UnsubscribeAll() {
	g.Unsubscribe()
}

// Closed reports whether the group has been released.
func (g *Group) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Len returns the number of open subscriptions owned by the group.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.composite == nil {
		return 0
	}
	return g.composite.Len()
}

// GroupSubscribe subscribes handler on the group's bus and hands the
// resulting subscription to the group. The same handle is returned so the
// caller can still release it early.
func GroupSubscribe[T any](g *Group, typ Type[T], handler Handler[T], opts ...SubscriptionOption) (Subscription, error) {
	if g.Closed() {
		return nil, ErrGroupClosed
	}
	sub, err := Subscribe(g.bus, typ, handler, opts...)
	if err != nil {
		return nil, err
	}
	if err := g.Add(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// GroupSubscribeEvent is the group form of SubscribeEvent.
func GroupSubscribeEvent[T any](g *Group, typ Type[T], handler EventHandler[T], opts ...SubscriptionOption) (Subscription, error) {
	if g.Closed() {
		return nil, ErrGroupClosed
	}
	sub, err := SubscribeEvent(g.bus, typ, handler, opts...)
	if err != nil {
		return nil, err
	}
	if err := g.Add(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// GroupSubscribeFunc is the group form of SubscribeFunc.
func GroupSubscribeFunc[T any](g *Group, typ Type[T], fn func(payload T), opts ...SubscriptionOption) (Subscription, error) {
	if g.Closed() {
		return nil, ErrGroupClosed
	}
	sub, err := SubscribeFunc(g.bus, typ, fn, opts...)
	if err != nil {
		return nil, err
	}
	if err := g.Add(sub); err != nil {
		return nil, err
	}
	return sub, nil
}
