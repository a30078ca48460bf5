package event

import (
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/eventbus/internal/event/topic"
)

// timeNow is a variable to allow testing with fixed timestamps.
var timeNow = time.Now

// Event represents an event in the system.
// Events are immutable once created: the tag is fixed by the Type that
// constructed the event and the fields are only readable through accessors.
type Event[T any] struct {
	topic    topic.Topic
	payload  T
	metadata Metadata
}

// Metadata contains standard information attached to every event.
// Metadata never takes part in routing.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source identifies the component that published the event.
	Source string

	// CorrelationID links related events (e.g., request/response).
	CorrelationID string
}

func newMetadata(source string) Metadata {
	return Metadata{
		ID:        uuid.NewString(),
		Timestamp: timeNow(),
		Source:    source,
	}
}

// Topic returns the event's type tag.
func (e Event[T]) Topic() topic.Topic {
	return e.topic
}

// Payload returns the event payload.
func (e Event[T]) Payload() T {
	return e.payload
}

// Metadata returns the event metadata.
func (e Event[T]) Metadata() Metadata {
	return e.metadata
}

// WithSource returns a copy of the event with a different source.
func (e Event[T]) WithSource(source string) Event[T] {
	e.metadata.Source = source
	return e
}

// WithCorrelation returns a copy of the event with a correlation ID set.
func (e Event[T]) WithCorrelation(correlationID string) Event[T] {
	e.metadata.CorrelationID = correlationID
	return e
}

// EventTopic implements Eventer.
func (e Event[T]) EventTopic() topic.Topic {
	return e.topic
}

// Envelope implements Eventer.
func (e Event[T]) Envelope() Envelope {
	return Envelope{
		Topic:    e.topic,
		Payload:  e.payload,
		Metadata: e.metadata,
	}
}

func (e Event[T]) payloadType() reflect.Type {
	return typeOf[T]()
}

// Eventer is implemented by every Event[T]. It lets the bus accept events of
// any payload type. The interface is sealed: only Event values satisfy it.
type Eventer interface {
	EventTopic() topic.Topic
	Envelope() Envelope
	payloadType() reflect.Type
}

// Envelope is the type-erased record carried on the bus stream.
type Envelope struct {
	// Topic is the event tag.
	Topic topic.Topic

	// Payload is the type-erased event payload. It is nil for payload-less
	// legacy emissions.
	Payload any

	// Metadata is the event metadata.
	Metadata Metadata
}

// typeOf returns the reflect.Type of T, including interface types.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
