package event

import (
	"testing"

	"github.com/dshills/eventbus/internal/event/topic"
)

type session struct {
	ID   string
	User string
}

// newTestBus returns a bus backed by its own type registry so tests do not
// share definitions.
func newTestBus(t *testing.T, opts ...BusOption) *Bus {
	t.Helper()
	opts = append([]BusOption{WithTypes(NewTypeRegistry())}, opts...)
	return NewBus(opts...)
}

func mustDefine[T any](t *testing.T, b *Bus, tag topic.Topic) Type[T] {
	t.Helper()
	typ, err := DefineIn[T](b.Types(), tag)
	if err != nil {
		t.Fatalf("DefineIn(%q) failed: %v", tag, err)
	}
	return typ
}
