package event

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/eventbus/internal/event/metrics"
	"github.com/dshills/eventbus/internal/event/topic"
)

// Descriptor is the descriptor form of a legacy key. Every Type[T]
// satisfies it.
type Descriptor interface {
	Topic() topic.Topic
	Name() string
}

type keyKind uint8

const (
	keyInvalid keyKind = iota
	keyName
	keyDescriptor
)

// Key is the first argument of the legacy calls. It is either a plain event
// name (KeyName) or an event type descriptor (KeyOf).
type Key struct {
	kind keyKind
	name string
	desc Descriptor
}

// KeyName returns the string form of a legacy key.
func KeyName(name string) Key {
	return Key{kind: keyName, name: name}
}

// KeyOf returns the descriptor form of a legacy key.
func KeyOf(d Descriptor) Key {
	if d == nil {
		return Key{}
	}
	return Key{kind: keyDescriptor, desc: d}
}

// IsName reports whether k is the string form.
func (k Key) IsName() bool {
	return k.kind == keyName
}

// Topic returns the tag k routes to. For the descriptor form the
// descriptor's tag is authoritative, not its Name.
func (k Key) Topic() topic.Topic {
	switch k.kind {
	case keyName:
		return topic.Topic(k.name)
	case keyDescriptor:
		return k.desc.Topic()
	default:
		return ""
	}
}

func (k Key) form() string {
	switch k.kind {
	case keyName:
		return "name"
	case keyDescriptor:
		return "descriptor"
	default:
		return "invalid"
	}
}

// LegacyHandle identifies a registration made through Legacy.On.
// The zero handle is returned for string-form registrations, which register
// nothing.
type LegacyHandle struct {
	sub Subscription
}

// IsZero reports whether the handle refers to no registration.
func (h LegacyHandle) IsZero() bool {
	return h.sub == nil
}

// Subscription returns the underlying subscription, or nil.
func (h LegacyHandle) Subscription() Subscription {
	return h.sub
}

// LegacyOption configures a Legacy shim.
type LegacyOption func(*Legacy)

// WithNoticeOnce limits deprecation notices to the first call of each method.
func WithNoticeOnce(enabled bool) LegacyOption {
	return func(l *Legacy) {
		l.noticeOnce = enabled
	}
}

// Legacy is the deprecated string-keyed emit/on/off surface, layered over a
// typed Bus. New code should use Bus.Emit and Subscribe.
type Legacy struct {
	bus        *Bus
	logger     *zap.Logger
	noticeOnce bool

	mu       sync.Mutex
	handlers map[topic.Topic][]Subscription
	noticed  map[string]bool
}

// NewLegacy creates the legacy surface for bus.
func NewLegacy(bus *Bus, opts ...LegacyOption) *Legacy {
	l := &Legacy{
		bus:      bus,
		logger:   bus.logger.Named("legacy"),
		handlers: make(map[topic.Topic][]Subscription),
		noticed:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Emit builds the record {tag, payload} and pushes it onto the bus stream
// directly. Payload may be nil.
//
// Deprecated: use Bus.Emit with an event created by Type.New.
func (l *Legacy) Emit(key Key, payload any) error {
	l.deprecated("emit", key, "Bus.Emit")

	if key.kind == keyInvalid {
		return ErrInvalidKey
	}
	tag := key.Topic()
	if err := tag.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}

	env := Envelope{
		Topic:    tag,
		Payload:  payload,
		Metadata: newMetadata("legacy"),
	}
	return l.bus.push(env, metrics.PathLegacy)
}

// On registers handler for events of the key's tag. The handler receives the
// bare payload.
//
// The string form is disabled: it registers nothing, never errors and
// returns a zero handle. The scope argument is accepted for call-site
// compatibility and ignored; registrations are never released automatically.
//
// Deprecated: use Subscribe.
func (l *Legacy) On(key Key, handler func(payload any), scope any) (LegacyHandle, error) {
	_ = scope
	l.deprecated("on", key, "Subscribe")

	switch key.kind {
	case keyName:
		return LegacyHandle{}, nil
	case keyDescriptor:
	default:
		return LegacyHandle{}, ErrInvalidKey
	}
	if handler == nil {
		return LegacyHandle{}, ErrNilHandler
	}

	tag := key.Topic()
	sub, err := l.bus.subscribe(tag, nil, func(env Envelope) error {
		handler(env.Payload)
		return nil
	}, nil)
	if err != nil {
		return LegacyHandle{}, err
	}

	l.mu.Lock()
	l.handlers[tag] = append(openSubs(l.handlers[tag]), sub)
	l.mu.Unlock()

	return LegacyHandle{sub: sub}, nil
}

// Off removes a registration made through On for the key's tag. A zero
// handle removes every legacy registration for that tag. Returns the number
// of registrations removed; string-form On calls never produce any.
//
// Deprecated: use Subscription.Unsubscribe.
func (l *Legacy) Off(key Key, handle LegacyHandle) int {
	l.deprecated("off", key, "Subscription.Unsubscribe")

	tag := key.Topic()
	if tag == "" {
		return 0
	}

	l.mu.Lock()
	subs := l.handlers[tag]
	var removed, kept []Subscription
	for _, sub := range subs {
		if handle.IsZero() || sub == handle.sub {
			removed = append(removed, sub)
		} else {
			kept = append(kept, sub)
		}
	}
	if len(kept) == 0 {
		delete(l.handlers, tag)
	} else {
		l.handlers[tag] = kept
	}
	l.mu.Unlock()

	for _, sub := range removed {
		sub.Unsubscribe()
	}
	return len(removed)
}

// Registrations returns the number of live legacy registrations for key.
func (l *Legacy) Registrations(key Key) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	tag := key.Topic()
	subs := openSubs(l.handlers[tag])
	if len(subs) == 0 {
		delete(l.handlers, tag)
	} else {
		l.handlers[tag] = subs
	}
	return len(subs)
}

// openSubs filters out subscriptions released outside Off, reusing subs.
func openSubs(subs []Subscription) []Subscription {
	open := subs[:0]
	for _, sub := range subs {
		if !sub.Closed() {
			open = append(open, sub)
		}
	}
	clear(subs[len(open):])
	return open
}

// deprecated emits the deprecation notice for one legacy call.
func (l *Legacy) deprecated(method string, key Key, replacement string) {
	l.bus.recorder.LegacyCall(method, key.form())

	if l.noticeOnce {
		l.mu.Lock()
		seen := l.noticed[method]
		l.noticed[method] = true
		l.mu.Unlock()
		if seen {
			return
		}
	}

	l.logger.Warn("deprecated event API call",
		zap.String("method", method),
		zap.String("form", key.form()),
		zap.String("topic", key.Topic().String()),
		zap.String("replacement", replacement),
	)
}
