package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/eventbus/internal/app"
	"github.com/dshills/eventbus/internal/event"
	"github.com/dshills/eventbus/internal/event/topic"
)

type benchOptions struct {
	events      int
	subscribers int
	topics      int
	hold        time.Duration
}

func newBenchCmd() *cobra.Command {
	var opts benchOptions

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Publish synthetic events and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.events <= 0 || opts.subscribers < 0 || opts.topics <= 0 {
				return fmt.Errorf("events and topics must be positive, subscribers non-negative")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			reg := event.NewTypeRegistry()
			types := make([]event.Type[int], opts.topics)
			for i := range types {
				types[i], err = event.DefineIn[int](reg, topic.Join("bench", fmt.Sprintf("t%d", i)))
				if err != nil {
					return err
				}
			}

			appOpts := []app.Option{app.WithTypes(reg)}
			if path, _ := cmd.Flags().GetString("config"); path != "" && opts.hold > 0 {
				appOpts = append(appOpts, app.WithConfigFile(path))
			}

			return withApplication(cmd.Context(), cfg, appOpts, func(a *app.Application) error {
				if addr := a.MetricsAddr(); addr != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "metrics: http://%s/metrics\n", addr)
				}
				if err := runBench(cmd.OutOrStdout(), a.Bus(), types, opts); err != nil {
					return err
				}
				if opts.hold > 0 {
					select {
					case <-time.After(opts.hold):
					case <-cmd.Context().Done():
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&opts.events, "events", "n", 100000, "number of events to publish")
	cmd.Flags().IntVarP(&opts.subscribers, "subscribers", "m", 4, "subscribers per topic")
	cmd.Flags().IntVar(&opts.topics, "topics", 4, "number of distinct event tags")
	cmd.Flags().DurationVar(&opts.hold, "hold", 0, "keep the metrics endpoint up this long after the run, reloading the log level from --config")
	return cmd
}

func runBench(w io.Writer, bus *event.Bus, types []event.Type[int], opts benchOptions) error {
	g := event.NewGroup(bus)
	defer g.Unsubscribe()

	var received int
	for _, typ := range types {
		for i := 0; i < opts.subscribers; i++ {
			if _, err := event.GroupSubscribeFunc(g, typ, func(int) { received++ }); err != nil {
				return err
			}
		}
	}

	start := time.Now()
	for i := 0; i < opts.events; i++ {
		if err := bus.Emit(types[i%len(types)].New(i)); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	rate := float64(opts.events) / elapsed.Seconds()
	fmt.Fprintf(w, "published %d events to %d subscriptions in %s (%.0f events/s, %d deliveries)\n",
		opts.events, g.Len(), elapsed, rate, received)
	return nil
}
