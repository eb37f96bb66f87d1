// Package cmd defines and implements the CLI commands for the fixharvest executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fixwire/fixharvest/internal/app"
	"github.com/fixwire/fixharvest/internal/config"
)

var envFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application surface commands use. Keeping it an interface
// lets tests inject a fake application.
type App interface {
	Harvest(ctx context.Context) error
	Close(ctx context.Context) error
	Logger() *zap.Logger
}

// newApp is the application factory. It is a variable so tests can replace it
// with a mock factory.
var newApp = func(ctx context.Context, cfg *config.Config) (App, error) {
	return app.Build(ctx, cfg)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixharvest",
		Short: "Harvests the FIX code-set reference into one JSON document.",
		Long: `fixharvest walks the FIX dictionary's field index, fetches every field's
detail page concurrently, extracts the standard values, and writes them as a
single ordered JSON document. Categories that fail are reported at the end of
the run without aborting the batch.`,

		// Build and inject the application after flags are parsed but before
		// the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			appInstance, err := newApp(cmd.Context(), &cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// Shut services down after the subcommand finishes.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			appInstance, ok := cmd.Context().Value(appKey).(App)
			if !ok || appInstance == nil {
				return
			}
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := appInstance.Close(closeCtx); err != nil {
				appInstance.Logger().Warn("shutdown error", zap.Error(err))
			}
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with configuration overrides")

	cmd.AddCommand(newHarvestCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fixharvest: %v\n", err)
		os.Exit(1)
	}
}
