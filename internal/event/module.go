package event

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Value groups that other modules contribute options to.
const (
	BusOptionsGroup    = "eventbus_options"
	LegacyOptionsGroup = "eventbus_legacy_options"
)

// BusParams are the fx inputs of ProvideBus.
type BusParams struct {
	fx.In

	Options []BusOption `group:"eventbus_options"`
}

// LegacyParams are the fx inputs of ProvideLegacy.
type LegacyParams struct {
	fx.In

	Bus     *Bus
	Options []LegacyOption `group:"eventbus_legacy_options"`
}

// Module returns the fx module providing the Bus and its Legacy surface.
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(ProvideBus, ProvideLegacy),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideBus builds the application bus from the contributed options.
func ProvideBus(p BusParams) *Bus {
	return NewBus(p.Options...)
}

// ProvideLegacy builds the legacy surface over the application bus.
func ProvideLegacy(p LegacyParams) *Legacy {
	return NewLegacy(p.Bus, p.Options...)
}

// registerLifecycle logs bus state on start and stop. The bus itself needs
// no start or stop.
func registerLifecycle(lc fx.Lifecycle, bus *Bus) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			bus.logger.Info("event bus ready",
				zap.Int("types", bus.types.Count()),
				zap.Bool("isolated", bus.isolate),
			)
			return nil
		},
		OnStop: func(context.Context) error {
			stats := bus.Stats()
			bus.logger.Info("event bus stopping",
				zap.Uint64("published", stats.EventsPublished),
				zap.Uint64("delivered", stats.EventsDelivered),
				zap.Int("subscriptions", stats.ActiveSubscribers),
			)
			return nil
		},
	})
}
