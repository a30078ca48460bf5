package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/eventbus/internal/app"
	"github.com/dshills/eventbus/internal/config"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "eventbus",
		Short:         "In-process typed event bus",
		Long:          "eventbus exercises the typed event bus: a scripted demo, Lua scripts and a synthetic load generator with Prometheus metrics.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "path to a TOML or YAML config file")

	cmd.AddCommand(newDemoCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newScriptCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "eventbus %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// loadConfig reads the file named by --config plus the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(path)
}

// withApplication builds and starts the application, runs fn and stops it.
func withApplication(ctx context.Context, cfg config.Config, opts []app.Option, fn func(*app.Application) error) (err error) {
	application, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("starting: %w", err)
	}
	defer func() {
		if stopErr := application.Stop(context.Background()); stopErr != nil && err == nil {
			err = fmt.Errorf("stopping: %w", stopErr)
		}
	}()

	return fn(application)
}
