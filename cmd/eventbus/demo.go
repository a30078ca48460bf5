package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/eventbus/internal/app"
	"github.com/dshills/eventbus/internal/event"
)

type demoTypes struct {
	a       event.Type[int]
	b       event.Type[int]
	x       event.Type[string]
	foo     event.Type[map[string]any]
	failing event.Type[int]
}

func defineDemoTypes(reg *event.TypeRegistry) (demoTypes, error) {
	var (
		t    demoTypes
		errs []error
		err  error
	)
	t.a, err = event.DefineIn[int](reg, "A")
	errs = append(errs, err)
	t.b, err = event.DefineIn[int](reg, "B")
	errs = append(errs, err)
	t.x, err = event.DefineIn[string](reg, "X")
	errs = append(errs, err)
	t.foo, err = event.DefineIn[map[string]any](reg, "foo")
	errs = append(errs, err)
	t.failing, err = event.DefineIn[int](reg, "failing")
	errs = append(errs, err)
	return t, errors.Join(errs...)
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through publish, subscribe, groups and the legacy surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			reg := event.NewTypeRegistry()
			types, err := defineDemoTypes(reg)
			if err != nil {
				return err
			}

			return withApplication(cmd.Context(), cfg, []app.Option{app.WithTypes(reg)}, func(a *app.Application) error {
				return runDemo(cmd.OutOrStdout(), a, types)
			})
		},
	}
}

func runDemo(w io.Writer, a *app.Application, t demoTypes) error {
	bus := a.Bus()

	fmt.Fprintln(w, "== subscribe, emit, unsubscribe")
	sub, err := event.SubscribeFunc(bus, t.a, func(v int) {
		fmt.Fprintf(w, "  H1 got %d\n", v)
	})
	if err != nil {
		return err
	}
	if err := bus.Emit(t.a.New(42)); err != nil {
		return err
	}
	sub.Unsubscribe()
	if err := bus.Emit(t.a.New(7)); err != nil {
		return err
	}
	fmt.Fprintln(w, "  (7 emitted after unsubscribe, not delivered)")

	fmt.Fprintln(w, "== tag isolation")
	sub, err = event.SubscribeFunc(bus, t.a, func(v int) {
		fmt.Fprintf(w, "  A handler got %d\n", v)
	})
	if err != nil {
		return err
	}
	if err := bus.Emit(t.b.New(1)); err != nil {
		return err
	}
	fmt.Fprintln(w, "  (B emitted, A handler silent)")
	sub.Unsubscribe()

	fmt.Fprintln(w, "== group")
	g := event.NewGroup(bus)
	if _, err := event.GroupSubscribeFunc(g, t.x, func(v string) {
		fmt.Fprintf(w, "  H2 got %q\n", v)
	}); err != nil {
		return err
	}
	if err := g.Emit(t.x.New("first")); err != nil {
		return err
	}
	g.UnsubscribeAll()
	if err := bus.Emit(t.x.New("second")); err != nil {
		return err
	}
	fmt.Fprintln(w, "  (second emitted after UnsubscribeAll, not delivered)")

	fmt.Fprintln(w, "== legacy emit")
	sub, err = event.SubscribeFunc(bus, t.foo, func(v map[string]any) {
		fmt.Fprintf(w, "  typed handler got %v\n", v)
	})
	if err != nil {
		return err
	}
	if err := a.Legacy().Emit(event.KeyName("foo"), map[string]any{"x": 1}); err != nil {
		return err
	}
	sub.Unsubscribe()

	fmt.Fprintln(w, "== handler failure")
	first, _ := event.Subscribe(bus, t.failing, func(int) error {
		return errors.New("refused")
	})
	second, _ := event.SubscribeFunc(bus, t.failing, func(v int) {
		fmt.Fprintf(w, "  second handler got %d\n", v)
	})
	err = bus.Emit(t.failing.New(1))
	fmt.Fprintf(w, "  emit returned: %v (isolated: %v)\n", err, bus.Isolated())
	first.Unsubscribe()
	second.Unsubscribe()

	stats := bus.Stats()
	fmt.Fprintf(w, "== stats: published=%d delivered=%d errors=%d active=%d\n",
		stats.EventsPublished, stats.EventsDelivered, stats.HandlerErrors, stats.ActiveSubscribers)
	return nil
}
