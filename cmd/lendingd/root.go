package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell/config"
)

// cli carries the state shared by all subcommands.
type cli struct {
	cfg      *config.Config
	logger   *slog.Logger
	logLevel string
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "lendingd",
		Short:         "Library lending service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = c.logLevel
			}

			c.cfg = cfg
			c.logger = config.NewLogger(cfg.LogLevel, os.Stdout)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error), overrides LOG_LEVEL")

	root.AddCommand(
		newServeCommand(c),
		newMigrateCommand(c),
		newUserCommand(c),
		newTokenCommand(c),
		newSeedCommand(c),
	)

	return root
}
