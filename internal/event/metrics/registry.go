package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry encapsulates all bus metrics without relying on the global
// Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	eventsEmitted       *prometheus.CounterVec
	handlerInvocations  *prometheus.CounterVec
	handlerDuration     *prometheus.HistogramVec
	legacyCalls         *prometheus.CounterVec
	activeSubscriptions prometheus.Gauge
	startTime           prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics initialized.
// Go runtime and process collectors are registered alongside.
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	r := &Registry{
		registry: registry,

		eventsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventbus_events_emitted_total",
				Help: "Total number of events pushed onto the bus",
			},
			[]string{"topic", "path"}, // path: typed, legacy
		),

		handlerInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventbus_handler_invocations_total",
				Help: "Total number of handler invocations by outcome",
			},
			[]string{"topic", "status"}, // status: success, error, panic, skipped
		),

		handlerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventbus_handler_duration_seconds",
				Help:    "Time spent inside subscriber handlers",
				Buckets: []float64{.000001, .00001, .0001, .001, .01, .1, 1},
			},
			[]string{"topic"},
		),

		legacyCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventbus_legacy_calls_total",
				Help: "Total number of calls on the deprecated string-keyed API",
			},
			[]string{"method", "form"}, // form: name, descriptor
		),

		activeSubscriptions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "eventbus_active_subscriptions",
				Help: "Number of live subscriptions on the bus",
			},
		),

		startTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "eventbus_start_time_seconds",
				Help: "Unix time the metrics registry was created",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.eventsEmitted,
		r.handlerInvocations,
		r.handlerDuration,
		r.legacyCalls,
		r.activeSubscriptions,
		r.startTime,
	)

	r.startTime.SetToCurrentTime()

	return r
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          r.registry,
	})
}

// EventEmitted implements Recorder.
func (r *Registry) EventEmitted(topic, path string) {
	r.eventsEmitted.WithLabelValues(topic, path).Inc()
}

// HandlerInvoked implements Recorder.
func (r *Registry) HandlerInvoked(topic, status string, duration time.Duration) {
	r.handlerInvocations.WithLabelValues(topic, status).Inc()
	if status != StatusSkipped {
		r.handlerDuration.WithLabelValues(topic).Observe(duration.Seconds())
	}
}

// SubscriptionsChanged implements Recorder.
func (r *Registry) SubscriptionsChanged(delta int) {
	r.activeSubscriptions.Add(float64(delta))
}

// LegacyCall implements Recorder.
func (r *Registry) LegacyCall(method, form string) {
	r.legacyCalls.WithLabelValues(method, form).Inc()
}
