package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/dshills/eventbus/internal/config"
	"github.com/dshills/eventbus/internal/event"
	"github.com/dshills/eventbus/internal/event/metrics"
	"github.com/dshills/eventbus/internal/logging"
	"github.com/dshills/eventbus/internal/script"
)

// loggerProvider builds the logger and its live level. An override logger
// keeps its own level; the returned one is then only informational.
func loggerProvider(override *zap.Logger) func(config.Config) (*zap.Logger, zap.AtomicLevel, error) {
	return func(cfg config.Config) (*zap.Logger, zap.AtomicLevel, error) {
		if override != nil {
			return override, zap.NewAtomicLevelAt(logging.Level(cfg.Log.Level)), nil
		}
		return logging.Build(cfg.Log)
	}
}

func provideRegistry() *metrics.Registry {
	return metrics.NewRegistry()
}

// provideRecorder records into reg only when the endpoint is enabled.
func provideRecorder(cfg config.Config, reg *metrics.Registry) metrics.Recorder {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return reg
}

func busOptions(types *event.TypeRegistry) func(config.Config, *zap.Logger, metrics.Recorder) []event.BusOption {
	return func(cfg config.Config, logger *zap.Logger, rec metrics.Recorder) []event.BusOption {
		opts := []event.BusOption{
			event.WithLogger(logger),
			event.WithRecorder(rec),
			event.WithIsolation(cfg.Bus.Isolate),
		}
		if types != nil {
			opts = append(opts, event.WithTypes(types))
		}
		return opts
	}
}

func legacyOptions(cfg config.Config) []event.LegacyOption {
	return []event.LegacyOption{
		event.WithNoticeOnce(cfg.Bus.LegacyNoticeOnce),
	}
}

type serverParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Registry  *metrics.Registry
	Logger    *zap.Logger
}

// registerMetricsServer starts the metrics endpoint with the application
// when it is enabled.
func registerMetricsServer(a *Application) func(serverParams) {
	return func(p serverParams) {
		if !p.Config.Metrics.Enabled {
			return
		}

		server := metrics.NewServer(
			metrics.ServerConfig{
				Port:    p.Config.Metrics.Port,
				Timeout: p.Config.Metrics.Timeout.Std(),
			},
			p.Registry,
			p.Logger,
		)
		a.server = server

		p.Lifecycle.Append(fx.Hook{
			OnStart: func(context.Context) error {
				return server.Start()
			},
			OnStop: func(ctx context.Context) error {
				return server.Stop(ctx)
			},
		})
	}
}

type watchParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Logger    *zap.Logger
	Level     zap.AtomicLevel
}

// registerConfigWatch applies log level changes from the config file while
// the application runs. Other settings take effect on restart.
func registerConfigWatch(path string) func(watchParams) {
	return func(p watchParams) {
		var w *config.Watcher

		p.Lifecycle.Append(fx.Hook{
			OnStart: func(context.Context) error {
				var err error
				w, err = config.Watch(path, func(cfg config.Config) {
					level := logging.Level(cfg.Log.Level)
					if level != p.Level.Level() {
						p.Level.SetLevel(level)
						p.Logger.Info("log level changed", zap.Stringer("level", level))
					}
				}, config.WithWatchLogger(p.Logger))
				return err
			},
			OnStop: func(context.Context) error {
				return w.Close()
			},
		})
	}
}

type scriptParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Bus       *event.Bus
	Legacy    *event.Legacy
	Logger    *zap.Logger
}

// provideScriptHost runs the configured Lua scripts on start and releases
// their registrations on stop.
func provideScriptHost(p scriptParams) *script.Host {
	h := script.New(p.Bus, p.Legacy, script.WithLogger(p.Logger))

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			for _, path := range p.Config.Script.Paths {
				if err := h.RunFile(path); err != nil {
					return err
				}
				p.Logger.Info("script loaded", zap.String("path", path))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			h.Close()
			return nil
		},
	})
	return h
}
