package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-lending-go/lending/auth"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell/config"
)

func newTokenCommand(c *cli) *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Manage bearer tokens",
	}

	var (
		userID string
		ttl    time.Duration
	)

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Print a bearer token for an existing user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.JWTSecret == "" {
				return config.ErrMissingJWTSecret
			}

			directory, usersDB, err := openDirectory(c)
			if err != nil {
				return err
			}
			defer func() { _ = auth.CloseDirectoryDB(usersDB) }()

			user, err := directory.FindByID(cmd.Context(), userID)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("ttl") {
				ttl = c.cfg.TokenTTL
			}

			signed, expiresAt, err := auth.NewTokenIssuer(c.cfg.JWTSecret, ttl).Issue(user)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n# expires %s\n", signed, expiresAt.Format(time.RFC3339))

			return err
		},
	}

	issue.Flags().StringVar(&userID, "user-id", "", "ID of the user")
	issue.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, overrides TOKEN_TTL")
	_ = issue.MarkFlagRequired("user-id")

	token.AddCommand(issue)

	return token
}
