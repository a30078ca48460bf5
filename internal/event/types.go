package event

import (
	"fmt"
	"reflect"

	"github.com/dshills/eventbus/internal/event/topic"
)

// Empty is the payload of events that carry no data.
type Empty = struct{}

// Type describes one category of events: its constant tag and its payload
// type. The bus filters subscriptions on the tag alone.
//
// Types are created with Define, DefineIn or MustDefine, which record the tag
// in a TypeRegistry so that a tag always maps to a single payload type.
type Type[T any] struct {
	topic topic.Topic
}

// Define registers tag in the default registry with payload type T.
func Define[T any](tag topic.Topic) (Type[T], error) {
	return DefineIn[T](DefaultTypes(), tag)
}

// DefineIn registers tag in reg with payload type T.
// Defining the same tag again with the same payload type returns an equal
// Type; a different payload type fails with ErrTypeConflict.
func DefineIn[T any](reg *TypeRegistry, tag topic.Topic) (Type[T], error) {
	if err := reg.Register(tag, typeOf[T]()); err != nil {
		return Type[T]{}, err
	}
	return Type[T]{topic: tag}, nil
}

// MustDefine is like Define but panics on error.
// It is intended for package-level variables.
func MustDefine[T any](tag topic.Topic) Type[T] {
	t, err := Define[T](tag)
	if err != nil {
		panic(err)
	}
	return t
}

// Topic returns the tag of this event type.
func (t Type[T]) Topic() topic.Topic {
	return t.topic
}

// Name returns the Go name of the payload type, for diagnostics.
func (t Type[T]) Name() string {
	rt := typeOf[T]()
	if rt.Name() == "" {
		return rt.String()
	}
	return rt.Name()
}

// PayloadType returns the payload type of this event type.
func (t Type[T]) PayloadType() reflect.Type {
	return typeOf[T]()
}

// String returns a human-readable description.
func (t Type[T]) String() string {
	return fmt.Sprintf("%s(%s)", t.topic, typeOf[T]())
}

// IsZero reports whether t was not created through Define.
func (t Type[T]) IsZero() bool {
	return t.topic == ""
}

// New creates an event of this type carrying payload.
func (t Type[T]) New(payload T) Event[T] {
	return Event[T]{
		topic:    t.topic,
		payload:  payload,
		metadata: newMetadata(""),
	}
}

// NewFrom creates an event of this type with the given source.
func (t Type[T]) NewFrom(source string, payload T) Event[T] {
	e := t.New(payload)
	e.metadata.Source = source
	return e
}

// Validate checks that e was built for this type.
func (t Type[T]) Validate(e Event[T]) error {
	if t.IsZero() {
		return fmt.Errorf("%w: type is not defined", ErrInvalidTopic)
	}
	if e.topic != t.topic {
		return fmt.Errorf("%w: event tag %q, type tag %q", ErrTypeMismatch, e.topic, t.topic)
	}
	return nil
}

// Signal creates a payload-less event of type t.
func Signal(t Type[Empty]) Event[Empty] {
	return t.New(Empty{})
}

// Handler receives the payload of events of one type.
type Handler[T any] func(payload T) error

// EventHandler receives the full event, including metadata.
type EventHandler[T any] func(e Event[T]) error

// FilterFunc is a predicate over the type-erased envelope.
// Return true to allow the event, false to filter it out.
type FilterFunc func(env Envelope) bool

// Stats contains event bus statistics.
type Stats struct {
	// EventsPublished is the total number of events pushed onto the bus.
	EventsPublished uint64

	// HandlersExecuted is the total number of handler executions.
	HandlersExecuted uint64

	// EventsDelivered is the number of handler executions that succeeded.
	EventsDelivered uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handler panics that were recovered.
	HandlerPanics uint64

	// EventsSkipped is the number of deliveries skipped because the payload
	// did not match the subscribed type.
	EventsSkipped uint64

	// ActiveSubscribers is the current number of live subscriptions.
	ActiveSubscribers int
}
