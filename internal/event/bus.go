package event

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/eventbus/internal/event/dispatch"
	"github.com/dshills/eventbus/internal/event/metrics"
	"github.com/dshills/eventbus/internal/event/stream"
	"github.com/dshills/eventbus/internal/event/topic"
)

// Bus is the central event dispatcher. It owns one shared stream; every
// subscription is a filtered view of that stream keyed on the event tag.
//
// A Bus lives as long as the application and has no teardown of its own:
// subscriptions and groups are released individually.
type Bus struct {
	subject  *stream.Subject[Envelope]
	runner   *dispatch.Runner
	types    *TypeRegistry
	logger   *zap.Logger
	recorder metrics.Recorder
	isolate  bool

	published atomic.Uint64
	skipped   atomic.Uint64
	active    atomic.Int64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	b := &Bus{
		subject:  stream.NewSubject[Envelope](stream.WithContinueOnError(config.isolate)),
		types:    config.types,
		logger:   config.logger.Named("eventbus"),
		recorder: config.recorder,
		isolate:  config.isolate,
	}

	b.runner = dispatch.NewRunner(
		dispatch.Recover(config.isolate),
		dispatch.OnPanic(b.logPanic),
	)

	return b
}

// Emit publishes e to every subscription registered for its tag, in
// subscription order, before returning.
//
// The event's tag and payload type must match the bus type registry. Handler
// failures are returned; see WithIsolation for how a failing handler affects
// the rest of the emission.
func (b *Bus) Emit(e Eventer) error {
	if e == nil {
		return ErrInvalidEvent
	}

	env := e.Envelope()
	if err := env.Topic.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := b.types.check(env.Topic, e.payloadType()); err != nil {
		return err
	}

	return b.push(env, metrics.PathTyped)
}

// Types returns the registry emitted events are validated against.
func (b *Bus) Types() *TypeRegistry {
	return b.types
}

// Isolated reports whether handler isolation is enabled.
func (b *Bus) Isolated() bool {
	return b.isolate
}

// Stats returns current bus statistics.
func (b *Bus) Stats() Stats {
	rs := b.runner.Stats()
	return Stats{
		EventsPublished:   b.published.Load(),
		HandlersExecuted:  rs.Runs,
		EventsDelivered:   rs.Succeeded,
		HandlerErrors:     rs.Failed,
		HandlerPanics:     rs.Panicked,
		EventsSkipped:     b.skipped.Load(),
		ActiveSubscribers: int(b.active.Load()),
	}
}

// Subscribe registers handler for every future event of type typ.
// Past events are never redelivered.
func Subscribe[T any](b *Bus, typ Type[T], handler Handler[T], opts ...SubscriptionOption) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	return subscribeTyped(b, typ, func(e Event[T]) error {
		return handler(e.payload)
	}, opts)
}

// SubscribeEvent is like Subscribe but the handler receives the whole event.
func SubscribeEvent[T any](b *Bus, typ Type[T], handler EventHandler[T], opts ...SubscriptionOption) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	return subscribeTyped(b, typ, handler, opts)
}

// SubscribeFunc is a convenience for handlers that cannot fail.
func SubscribeFunc[T any](b *Bus, typ Type[T], fn func(payload T), opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return Subscribe(b, typ, func(payload T) error {
		fn(payload)
		return nil
	}, opts...)
}

func subscribeTyped[T any](b *Bus, typ Type[T], handler EventHandler[T], opts []SubscriptionOption) (Subscription, error) {
	if typ.IsZero() {
		return nil, fmt.Errorf("%w: type is not defined", ErrInvalidTopic)
	}
	if err := b.types.check(typ.topic, typeOf[T]()); err != nil {
		return nil, err
	}

	return b.subscribe(typ.topic, acceptsPayload[T], func(env Envelope) error {
		payload, _ := payloadAs[T](env.Payload)
		return handler(Event[T]{
			topic:    env.Topic,
			payload:  payload,
			metadata: env.Metadata,
		})
	}, opts)
}

// payloadAs converts a type-erased payload. A nil payload, which only the
// legacy surface produces, converts to the zero T.
func payloadAs[T any](v any) (T, bool) {
	if v == nil {
		var zero T
		return zero, true
	}
	p, ok := v.(T)
	return p, ok
}

func acceptsPayload[T any](env Envelope) bool {
	_, ok := payloadAs[T](env.Payload)
	return ok
}

// push puts env on the shared stream.
func (b *Bus) push(env Envelope, path string) error {
	b.published.Add(1)
	b.recorder.EventEmitted(env.Topic.String(), path)
	return b.subject.Push(env)
}

// subscribe attaches fn to the stream, filtered on tag t.
// accept, when set, rejects envelopes the handler cannot take.
func (b *Bus) subscribe(t topic.Topic, accept FilterFunc, fn func(env Envelope) error, opts []SubscriptionOption) (Subscription, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}

	var config SubscriptionConfig
	for _, opt := range opts {
		opt(&config)
	}

	sub := &subscription{
		id:    uuid.NewString(),
		topic: t,
		bus:   b,
	}

	filtered := stream.Filter[Envelope](b.subject, func(env Envelope) bool {
		if env.Topic != t {
			return false
		}
		return config.Filter == nil || config.Filter(env)
	})
	sub.inner = filtered.Subscribe(func(env Envelope) error {
		return b.deliver(sub, config, accept, fn, env)
	})

	b.active.Add(1)
	b.recorder.SubscriptionsChanged(1)

	return sub, nil
}

// deliver runs one handler for one envelope and translates the outcome.
func (b *Bus) deliver(sub *subscription, config SubscriptionConfig, accept FilterFunc, fn func(env Envelope) error, env Envelope) error {
	tag := env.Topic.String()

	if accept != nil && !accept(env) {
		b.skipped.Add(1)
		b.recorder.HandlerInvoked(tag, metrics.StatusSkipped, 0)
		b.logger.Debug("payload does not match subscribed type",
			zap.String("topic", tag),
			zap.String("subscription", sub.id),
			zap.String("payload", fmt.Sprintf("%T", env.Payload)),
		)
		return nil
	}

	res := b.runner.Run(env, func() error { return fn(env) })
	b.recorder.HandlerInvoked(tag, res.Outcome.String(), res.Duration)

	switch res.Outcome {
	case dispatch.Panicked:
		return &PanicError{
			SubscriptionID: sub.id,
			Topic:          tag,
			Value:          res.Panic.Value,
			Stack:          string(res.Panic.Stack),
		}
	case dispatch.Failed:
		if b.isolate {
			b.logger.Error("event handler failed",
				zap.String("topic", tag),
				zap.String("subscription", sub.id),
				zap.Error(res.Err),
			)
		}
		return &HandlerError{
			SubscriptionID: sub.id,
			Topic:          tag,
			Err:            res.Err,
		}
	}

	if config.Once {
		sub.Unsubscribe()
	}
	return nil
}

// released is called once per subscription when it is unsubscribed.
func (b *Bus) released() {
	b.active.Add(-1)
	b.recorder.SubscriptionsChanged(-1)
}

// logPanic reports a recovered handler panic.
func (b *Bus) logPanic(subject any, p *dispatch.Panic) {
	var tag string
	if env, ok := subject.(Envelope); ok {
		tag = env.Topic.String()
	}
	b.logger.Error("event handler panicked",
		zap.String("topic", tag),
		zap.Any("panic", p.Value),
		zap.ByteString("stack", p.Stack),
	)
}
