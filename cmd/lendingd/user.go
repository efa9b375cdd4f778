package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/AntonStoeckl/library-lending-go/lending/auth"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
)

func newUserCommand(c *cli) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var (
		username string
		role     string
	)

	add := &cobra.Command{
		Use:   "add",
		Short: "Register a user, the password is read from the terminal or stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			directory, usersDB, err := openDirectory(c)
			if err != nil {
				return err
			}
			defer func() { _ = auth.CloseDirectoryDB(usersDB) }()

			if err := directory.Migrate(cmd.Context()); err != nil {
				return err
			}

			created, err := directory.Create(cmd.Context(), username, password, role)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", created.ID, created.Username, created.Role)

			return err
		},
	}

	add.Flags().StringVar(&username, "username", "", "username")
	add.Flags().StringVar(&role, "role", core.RolePatron, "admin or patron")
	_ = add.MarkFlagRequired("username")

	user.AddCommand(add)

	return user
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(prompt, "Password: ")
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading the password failed: %w", err)
		}

		return strings.TrimSpace(string(bytePassword)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading the password failed: %w", err)
	}

	return strings.TrimSpace(line), nil
}
