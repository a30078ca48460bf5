package stream

// Observer receives values delivered by a stream.
type Observer[T any] func(v T) error

// Subscription is a live registration of an observer on a stream.
type Subscription interface {
	// Unsubscribe removes the registration. It is idempotent.
	Unsubscribe()

	// Closed reports whether Unsubscribe has been called.
	Closed() bool
}

// Stream is a source of values that observers can subscribe to.
type Stream[T any] interface {
	Subscribe(fn Observer[T]) Subscription
}

// Predicate decides whether a value is forwarded by a filtered stream.
type Predicate[T any] func(v T) bool

type filtered[T any] struct {
	src  Stream[T]
	pred Predicate[T]
}

// Filter returns a stream that forwards only the values of src for which
// pred returns true. Subscribing to the derived stream subscribes to src.
func Filter[T any](src Stream[T], pred Predicate[T]) Stream[T] {
	return &filtered[T]{src: src, pred: pred}
}

// Subscribe implements Stream.
func (f *filtered[T]) Subscribe(fn Observer[T]) Subscription {
	return f.src.Subscribe(func(v T) error {
		if !f.pred(v) {
			return nil
		}
		return fn(v)
	})
}
