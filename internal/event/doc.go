// Package event provides the in-process typed event bus.
//
// The bus decouples producers and consumers of discrete events inside one
// process. Delivery is synchronous: Emit runs every matching handler, in the
// order the handlers subscribed, before it returns. Nothing is stored, so a
// subscriber only sees events emitted after it subscribed.
//
// # Event Types
//
// An event category is declared once with Define. The tag is the routing key
// and the type parameter is the payload type:
//
//	var SessionStarted = event.MustDefine[Session]("session.started")
//	var CacheFlushed = event.MustDefine[event.Empty]("cache.flushed")
//
// Events are created from their type, so the tag of an event always agrees
// with its type:
//
//	bus.Emit(SessionStarted.New(Session{ID: "s-1"}))
//	bus.Emit(event.Signal(CacheFlushed))
//
// # Subscribing
//
//	sub, err := event.Subscribe(bus, SessionStarted, func(s Session) error {
//	    return nil
//	})
//	defer sub.Unsubscribe()
//
// Matching is an exact comparison of tags. Unsubscribe is idempotent.
//
// # Groups
//
// A Group owns many subscriptions and releases them together:
//
//	g := event.NewGroup(bus)
//	event.GroupSubscribe(g, SessionStarted, onStart)
//	event.GroupSubscribeFunc(g, CacheFlushed, onFlush)
//	g.Unsubscribe()
//
// # Handler Failures
//
// By default the first handler error or panic propagates out of Emit and the
// handlers after it are skipped for that emission. WithIsolation(true) runs
// every handler, recovers panics, logs failures and returns them combined.
//
// # Legacy Surface
//
// Legacy offers the deprecated string-keyed emit/on/off calls. Each call logs
// a deprecation notice. The string form of On is intentionally a no-op.
//
// # Subpackages
//
//   - topic: the tag type and its validation
//   - stream: the shared push stream, filtering and composite subscriptions
//   - dispatch: handler execution, timing and panic recovery
//   - metrics: Prometheus recording of bus activity
package event
