package event

import (
	"go.uber.org/zap"

	"github.com/dshills/eventbus/internal/event/metrics"
)

// BusOption configures an event Bus.
type BusOption func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// logger receives handler failures and diagnostics.
	logger *zap.Logger

	// recorder receives per-emission metrics.
	recorder metrics.Recorder

	// types is the registry emitted events are checked against.
	types *TypeRegistry

	// isolate runs every handler even when one fails or panics.
	isolate bool
}

// defaultBusConfig returns the baseline configuration: no logging, no
// metrics, the default type registry and no handler isolation.
func defaultBusConfig() busConfig {
	return busConfig{
		logger:   zap.NewNop(),
		recorder: metrics.Nop{},
		types:    DefaultTypes(),
	}
}

// WithLogger sets the logger for the bus.
func WithLogger(l *zap.Logger) BusOption {
	return func(c *busConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder for the bus.
func WithRecorder(r metrics.Recorder) BusOption {
	return func(c *busConfig) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithTypes sets the type registry emitted events are validated against.
func WithTypes(r *TypeRegistry) BusOption {
	return func(c *busConfig) {
		if r != nil {
			c.types = r
		}
	}
}

// WithIsolation enables or disables handler isolation.
//
// Without isolation the first handler error or panic propagates out of Emit
// and the remaining handlers for that emission are skipped. With isolation
// every matching handler runs, panics are recovered, each failure is logged,
// and Emit returns all failures combined.
func WithIsolation(enabled bool) BusOption {
	return func(c *busConfig) {
		c.isolate = enabled
	}
}

// SubscriptionOption is a function that configures a subscription.
type SubscriptionOption func(*SubscriptionConfig)

// SubscriptionConfig contains configuration for a subscription.
type SubscriptionConfig struct {
	// Filter is an optional predicate to filter events.
	// If set, events are only delivered if Filter returns true.
	Filter FilterFunc

	// Once indicates the subscription should auto-cancel after the first
	// successful delivery.
	Once bool
}

// WithFilter sets a filter predicate.
func WithFilter(f FilterFunc) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Filter = f
	}
}

// WithOnce sets the subscription to auto-cancel after the first event.
func WithOnce() SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Once = true
	}
}
