package event

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/dshills/eventbus/internal/event/topic"
)

// TypeRegistry is the table of known event tags and their payload types.
// It is thread-safe for concurrent access.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[topic.Topic]reflect.Type
}

var defaultTypes = NewTypeRegistry()

// DefaultTypes returns the process-wide registry used by Define and by buses
// created without WithTypes.
func DefaultTypes() *TypeRegistry {
	return defaultTypes
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types: make(map[topic.Topic]reflect.Type),
	}
}

// Register records tag with the given payload type.
// Registering an existing tag with the same payload type is a no-op.
func (r *TypeRegistry) Register(tag topic.Topic, payload reflect.Type) error {
	if err := tag.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}
	if payload == nil {
		return fmt.Errorf("%w: nil payload type for %q", ErrInvalidEvent, tag)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.types[tag]; ok {
		if existing != payload {
			return fmt.Errorf("%w: %q is %s, not %s", ErrTypeConflict, tag, existing, payload)
		}
		return nil
	}
	r.types[tag] = payload
	return nil
}

// Lookup returns the payload type registered for tag.
func (r *TypeRegistry) Lookup(tag topic.Topic) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[tag]
	return t, ok
}

// Known returns true if tag has been registered.
func (r *TypeRegistry) Known(tag topic.Topic) bool {
	_, ok := r.Lookup(tag)
	return ok
}

// Remove deletes tag from the registry.
func (r *TypeRegistry) Remove(tag topic.Topic) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[tag]; !ok {
		return false
	}
	delete(r.types, tag)
	return true
}

// Count returns the number of registered tags.
func (r *TypeRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.types)
}

// Topics returns all registered tags in sorted order.
func (r *TypeRegistry) Topics() []topic.Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.types) == 0 {
		return nil
	}

	topics := make([]topic.Topic, 0, len(r.types))
	for t := range r.types {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i] < topics[j] })
	return topics
}

// check verifies that an event's tag and payload type agree with the registry.
func (r *TypeRegistry) check(tag topic.Topic, payload reflect.Type) error {
	registered, ok := r.Lookup(tag)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}
	if registered != payload {
		return fmt.Errorf("%w: %q carries %s, registered as %s", ErrTypeMismatch, tag, payload, registered)
	}
	return nil
}

// Descriptor returns a descriptor for a registered tag, for callers that
// only know the tag at run time.
func (r *TypeRegistry) Descriptor(tag topic.Topic) (Descriptor, bool) {
	payload, ok := r.Lookup(tag)
	if !ok {
		return nil, false
	}
	return registeredType{topic: tag, payload: payload}, true
}

type registeredType struct {
	topic   topic.Topic
	payload reflect.Type
}

func (t registeredType) Topic() topic.Topic {
	return t.topic
}

func (t registeredType) Name() string {
	if t.payload.Name() == "" {
		return t.payload.String()
	}
	return t.payload.Name()
}
