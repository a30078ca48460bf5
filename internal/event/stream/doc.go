// Package stream provides the push-based stream primitive the event bus is
// built on.
//
// A Subject is a hot stream: values pushed on it are delivered synchronously
// to the observers subscribed at the time of the push, in subscription order.
// Late observers never see earlier values. Filter derives a stream that only
// forwards values matching a predicate, and Composite groups subscriptions so
// they can be released together.
//
// # Snapshot Delivery
//
// Push snapshots the observer list before delivering. Observers added while a
// value is being delivered do not receive that value. An observer removed
// while a value is being delivered is skipped if it has not been reached yet,
// and is never invoked twice for the same value.
//
// # Errors
//
// By default the first observer error stops delivery of the current value and
// is returned from Push. A Subject created with WithContinueOnError delivers
// to every observer and returns all errors combined.
package stream
