package catalog

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

const (
	getBookQueryType   = "GetBook"
	listBooksQueryType = "ListBooks"
)

// Store is the read side of the catalog. Reads go to the primary database, so a caller sees
// its own committed changes.
type Store struct {
	eventStore shell.EventStore
	observer   shell.Observer
}

func NewStore(eventStore shell.EventStore, observer shell.Observer) Store {
	return Store{eventStore: eventStore, observer: observer}
}

// Get returns the book or ErrBookNotFound if it was never added or was removed.
func (s Store) Get(ctx context.Context, bookID core.BookIDString) (book core.Book, err error) {
	start := time.Now()
	defer func() { s.observer.QueryFinished(ctx, getBookQueryType, start, err) }()

	history, _, err := shell.QueryDomainEvents(eventstore.WithStrongConsistency(ctx), s.eventStore, shell.BookStreamFilter(bookID))
	if err != nil {
		return core.Book{}, err
	}

	state := core.ProjectBook(history, bookID)
	if !state.Exists {
		return core.Book{}, core.ErrBookNotFound
	}

	return state.ToBook(), nil
}

// List returns all books of the catalog in the order they were added.
func (s Store) List(ctx context.Context) (books []core.Book, err error) {
	start := time.Now()
	defer func() { s.observer.QueryFinished(ctx, listBooksQueryType, start, err) }()

	history, _, err := shell.QueryDomainEvents(eventstore.WithStrongConsistency(ctx), s.eventStore, shell.CatalogFilter())
	if err != nil {
		return nil, err
	}

	catalog := core.ProjectCatalog(history)
	books = make([]core.Book, 0, len(catalog))
	for _, state := range catalog {
		books = append(books, state.ToBook())
	}

	return books, nil
}
