package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/eventbus/internal/app"
	"github.com/dshills/eventbus/internal/event"
)

func newScriptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "script FILE...",
		Short: "Run Lua scripts against a fresh bus",
		Long:  "script runs each Lua file in order on one bus, so later scripts see the types and handlers of earlier ones.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Script.Paths = append(cfg.Script.Paths, args...)

			opts := []app.Option{app.WithTypes(event.NewTypeRegistry())}
			return withApplication(cmd.Context(), cfg, opts, func(a *app.Application) error {
				stats := a.Bus().Stats()
				fmt.Fprintf(cmd.OutOrStdout(), "ran %d script(s): published=%d delivered=%d active=%d\n",
					len(cfg.Script.Paths), stats.EventsPublished, stats.EventsDelivered, stats.ActiveSubscribers)
				return nil
			})
		},
	}
}
