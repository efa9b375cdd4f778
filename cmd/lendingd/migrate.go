package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/AntonStoeckl/library-lending-go/lending/auth"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell/config"
)

func newMigrateCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the events table and the users table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			events, err := config.OpenEventStore(ctx, c.cfg, c.logger, nil)
			if err != nil {
				return err
			}
			defer events.Close()

			_, usersDB, err := openDirectory(c)
			if err != nil {
				return err
			}
			defer func() { _ = auth.CloseDirectoryDB(usersDB) }()

			if err := runMigrations(ctx, events.CreateSchema, usersDB); err != nil {
				return err
			}

			c.logger.Info("migrations applied", "event_table", c.cfg.EventTable, "users_driver", c.cfg.UsersDBDriver)

			return nil
		},
	}
}

func runMigrations(ctx context.Context, createEventSchema func(context.Context) error, usersDB *gorm.DB) error {
	if err := createEventSchema(ctx); err != nil {
		return fmt.Errorf("creating the event schema failed: %w", err)
	}

	if err := auth.NewDirectory(usersDB).Migrate(ctx); err != nil {
		return fmt.Errorf("migrating the users table failed: %w", err)
	}

	return nil
}
