package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-lending-go/lending/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(c *cli) *cobra.Command {
	var (
		addr        string
		migrate     bool
		maxLoans    int
		enforceUser bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("addr") {
				c.cfg.HTTPAddr = addr
			}
			if flags.Changed("max-loans") {
				c.cfg.MaxLoansPerUser = maxLoans
			}
			if flags.Changed("enforce-borrower-identity") {
				c.cfg.EnforceBorrowerIdentity = enforceUser
			}

			if err := c.cfg.Validate(); err != nil {
				return err
			}

			return serve(cmd.Context(), c, migrate)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":3000", "listen address, overrides HTTP_ADDR")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create the schemas before serving")
	cmd.Flags().IntVar(&maxLoans, "max-loans", 0, "maximum concurrent loans per user, 0 is unlimited")
	cmd.Flags().BoolVar(&enforceUser, "enforce-borrower-identity", false, "only the borrower may return a book")

	return cmd
}

func serve(ctx context.Context, c *cli, migrate bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := buildService(ctx, c)
	if err != nil {
		return fmt.Errorf("wiring the service failed: %w", err)
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			c.logger.Error("closing resources failed", "error", closeErr.Error())
		}
	}()

	if migrate || c.cfg.UsesMemoryEventStore() {
		if err := runMigrations(ctx, s.events.CreateSchema, s.usersDB); err != nil {
			return err
		}
	}

	app := httpapi.NewApp(s.deps)

	listenErr := make(chan error, 1)
	go func() {
		c.logger.Info("lendingd listening", "addr", c.cfg.HTTPAddr, "memory_event_store", c.cfg.UsesMemoryEventStore())
		listenErr <- app.Listen(c.cfg.HTTPAddr)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
		c.logger.Info("shutting down")
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return err
	}

	if err := <-listenErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
