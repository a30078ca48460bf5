// Package metrics records event bus activity as Prometheus metrics.
package metrics

import "time"

// Handler outcome labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusPanic   = "panic"
	StatusSkipped = "skipped"
)

// Emission path labels.
const (
	PathTyped  = "typed"
	PathLegacy = "legacy"
)

// Recorder receives bus activity. Implementations must be cheap; they are
// called inline on every emission.
type Recorder interface {
	// EventEmitted records one event pushed onto the bus.
	EventEmitted(topic, path string)

	// HandlerInvoked records one handler call and how it ended.
	HandlerInvoked(topic, status string, duration time.Duration)

	// SubscriptionsChanged adjusts the live subscription count by delta.
	SubscriptionsChanged(delta int)

	// LegacyCall records one call on the deprecated string-keyed surface.
	LegacyCall(method, form string)
}

// Nop is a Recorder that discards everything.
type Nop struct{}

// EventEmitted implements Recorder.
func (Nop) EventEmitted(string, string) {}

// HandlerInvoked implements Recorder.
func (Nop) HandlerInvoked(string, string, time.Duration) {}

// SubscriptionsChanged implements Recorder.
func (Nop) SubscriptionsChanged(int) {}

// LegacyCall implements Recorder.
func (Nop) LegacyCall(string, string) {}
