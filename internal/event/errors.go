package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event bus.
var (
	// ErrInvalidEvent is returned when an event is malformed or missing its tag.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidTopic is returned when a tag is empty or malformed.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrUnknownType is returned when an event's tag is not in the bus type registry.
	ErrUnknownType = errors.New("unknown event type")

	// ErrTypeConflict is returned when a tag is defined twice with different payload types.
	ErrTypeConflict = errors.New("event type already defined with a different payload")

	// ErrTypeMismatch is returned when an event does not carry the tag or payload
	// type its descriptor declares.
	ErrTypeMismatch = errors.New("event does not match its type")

	// ErrGroupClosed is returned when subscribing through a group that was released.
	ErrGroupClosed = errors.New("subscription group is closed")

	// ErrInvalidKey is returned for a zero legacy Key.
	ErrInvalidKey = errors.New("invalid legacy key")

	// ErrHandlerPanic is matched by PanicError through errors.Is.
	ErrHandlerPanic = errors.New("handler panicked")
)

// HandlerError is a handler failure annotated with where it happened.
type HandlerError struct {
	SubscriptionID string
	Topic          string
	Err            error
}

func (e *HandlerError) Error() string {
	return failure(e.Topic, e.SubscriptionID, e.Err.Error())
}

func (e *HandlerError) Unwrap() error { return e.Err }

// PanicError is a recovered handler panic. It matches ErrHandlerPanic.
type PanicError struct {
	SubscriptionID string
	Topic          string
	Value          any
	Stack          string // goroutine stack at recovery
}

func (e *PanicError) Error() string {
	return failure(e.Topic, e.SubscriptionID, fmt.Sprintf("panic: %v", e.Value))
}

func (e *PanicError) Is(target error) bool { return target == ErrHandlerPanic }

func failure(tag, id, cause string) string {
	return fmt.Sprintf("%s: subscription %s: %s", tag, id, cause)
}
