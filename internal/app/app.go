// Package app wires the event bus process together: configuration,
// logging, metrics, the bus, Lua scripts and the metrics HTTP endpoint.
// Components are assembled with fx so their start and stop order follows
// their dependencies.
package app

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/eventbus/internal/config"
	"github.com/dshills/eventbus/internal/event"
	"github.com/dshills/eventbus/internal/event/metrics"
	"github.com/dshills/eventbus/internal/script"
)

// Application is a configured, startable event bus process.
type Application struct {
	fx *fx.App

	bus     *event.Bus
	legacy  *event.Legacy
	logger  *zap.Logger
	level   zap.AtomicLevel
	metrics *metrics.Registry
	server  *metrics.Server
	scripts *script.Host
}

// Option customizes the application graph.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	types      *event.TypeRegistry
	configFile string
	extra      []fx.Option
}

// WithLogger replaces the logger built from configuration.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTypes sets the type registry of the application bus.
func WithTypes(r *event.TypeRegistry) Option {
	return func(o *options) {
		o.types = r
	}
}

// WithConfigFile watches path while the application runs and applies log
// level changes from it.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

// WithFxOptions appends raw fx options, for example extra fx.Invoke calls
// that subscribe application handlers.
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) {
		o.extra = append(o.extra, opts...)
	}
}

// New builds the application graph for cfg. Nothing is started until Start.
func New(cfg config.Config, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &Application{}

	modules := []fx.Option{
		fx.Supply(cfg),
		fx.Provide(
			loggerProvider(o.logger),
			provideRegistry,
			provideRecorder,
			provideScriptHost,
			fx.Annotate(busOptions(o.types), fx.ResultTags(`group:"eventbus_options,flatten"`)),
			fx.Annotate(legacyOptions, fx.ResultTags(`group:"eventbus_legacy_options,flatten"`)),
		),
		event.Module(),
		fx.Invoke(registerMetricsServer(a)),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			fl := &fxevent.ZapLogger{Logger: l.Named("fx")}
			fl.UseLogLevel(zap.DebugLevel)
			return fl
		}),
		fx.Populate(&a.bus, &a.legacy, &a.logger, &a.level, &a.metrics, &a.scripts),
	}
	if o.configFile != "" {
		modules = append(modules, fx.Invoke(registerConfigWatch(o.configFile)))
	}
	modules = append(modules, o.extra...)

	a.fx = fx.New(modules...)
	if err := a.fx.Err(); err != nil {
		return nil, fmt.Errorf("building application: %w", err)
	}
	return a, nil
}

// Start runs every start hook: the metrics server and config watcher, when
// enabled, and the bus readiness log.
func (a *Application) Start(ctx context.Context) error {
	return a.fx.Start(ctx)
}

// Stop runs the stop hooks in reverse order.
func (a *Application) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}

// Bus returns the application bus.
func (a *Application) Bus() *event.Bus {
	return a.bus
}

// Legacy returns the deprecated string-keyed surface of the bus.
func (a *Application) Legacy() *event.Legacy {
	return a.legacy
}

// Scripts returns the Lua script host.
func (a *Application) Scripts() *script.Host {
	return a.scripts
}

// Logger returns the application logger.
func (a *Application) Logger() *zap.Logger {
	return a.logger
}

// LogLevel returns the current log level.
func (a *Application) LogLevel() zapcore.Level {
	return a.level.Level()
}

// Metrics returns the metrics registry. It exists even when the endpoint is
// disabled, in which case nothing records into it.
func (a *Application) Metrics() *metrics.Registry {
	return a.metrics
}

// MetricsAddr returns the metrics endpoint address, or "" when disabled.
func (a *Application) MetricsAddr() string {
	if a.server == nil {
		return ""
	}
	return a.server.Addr()
}
