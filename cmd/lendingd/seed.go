package main

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-lending-go/lending/catalog"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell/config"
)

var errSeedNeedsDatabase = errors.New("seeding needs DATABASE_URL, the in-memory store does not outlive this process")

var (
	seedTitles = []string{
		"The Third Policeman", "Dubliners", "At Swim-Two-Birds", "The Master and Margarita",
		"Pedro Paramo", "Solaris", "The Periodic Table", "Invisible Cities",
		"The Remains of the Day", "Stoner", "Wide Sargasso Sea", "The Leopard",
	}
	seedAuthors = []string{
		"Flann O'Brien", "James Joyce", "Mikhail Bulgakov", "Juan Rulfo", "Stanislaw Lem",
		"Primo Levi", "Italo Calvino", "Kazuo Ishiguro", "John Williams", "Jean Rhys",
	}
)

func newSeedCommand(c *cli) *cobra.Command {
	var books int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add demo books to the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.UsesMemoryEventStore() {
				return errSeedNeedsDatabase
			}

			ctx := cmd.Context()

			events, err := config.OpenEventStore(ctx, c.cfg, c.logger, nil)
			if err != nil {
				return err
			}
			defer events.Close()

			handler := catalog.NewCommandHandler(events, catalog.WithObserver(shell.NewObserver(c.logger, nil)))

			for i := range books {
				title := seedTitles[i%len(seedTitles)]
				if i >= len(seedTitles) {
					title = fmt.Sprintf("%s, vol. %d", title, i/len(seedTitles)+1)
				}

				author := seedAuthors[rand.IntN(len(seedAuthors))]

				book, err := handler.AddBook(ctx, catalog.BuildAddBookCommand(shell.NewID(), title, author, handler.Now()))
				if err != nil {
					return fmt.Errorf("adding book %d failed: %w", i+1, err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", book.ID, book.Title, book.Author)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&books, "books", len(seedTitles), "number of books to add")

	return cmd
}
