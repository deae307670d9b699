// Package cmd implements the donorctl commands.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kursadbilgin/donor-dispatch/internal/app"
	"github.com/kursadbilgin/donor-dispatch/internal/config"
	"github.com/kursadbilgin/donor-dispatch/internal/observability"
)

var (
	logLevel string
	output   string
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "donorctl",
		Short: "Operate the donor matching and SMS dispatch service",
		Long: "donorctl runs database migrations, ranks donors for a blood group,\n" +
			"sends bulk SMS and refreshes donor priority scores against the\n" +
			"database configured through the environment (DATABASE_DSN, SMS_*).",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&output, "output", "table", "output format (table, json)")

	root.AddCommand(
		migrateCmd(),
		rankCmd(),
		notifyCmd(),
		refreshPriorityCmd(),
	)

	return root
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// bootstrap loads config and wires the services for one command invocation.
func bootstrap(ctx context.Context) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	opts := cfg.LoggerOptions()
	if strings.TrimSpace(logLevel) != "" {
		opts.Level = logLevel
	}
	logger, err := observability.NewLogger(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}

	return a, logger, nil
}

func jsonOutput() bool {
	return strings.EqualFold(strings.TrimSpace(output), "json")
}
