package queries

import (
	"context"
	"slices"
	"time"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/ledger"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

const (
	availableBooksQueryType     = "AvailableBooks"
	borrowedBooksQueryType      = "BorrowedBooks"
	transactionHistoryQueryType = "TransactionHistory"
)

// UserDirectory resolves user IDs to display names. Unknown IDs are missing from the result.
type UserDirectory interface {
	UsernamesByID(ctx context.Context, userIDs []core.UserIDString) (map[core.UserIDString]string, error)
}

// Facade serves the read views.
type Facade struct {
	eventStore shell.EventStore
	ledger     ledger.Ledger
	users      UserDirectory
	observer   shell.Observer
}

func NewFacade(eventStore shell.EventStore, users UserDirectory, observer shell.Observer) Facade {
	return Facade{
		eventStore: eventStore,
		ledger:     ledger.NewLedger(eventStore),
		users:      users,
		observer:   observer,
	}
}

// AvailableBooks returns the books which are not on loan, in catalog order.
func (f Facade) AvailableBooks(ctx context.Context) (books []core.Book, err error) {
	start := time.Now()
	defer func() { f.observer.QueryFinished(ctx, availableBooksQueryType, start, err) }()

	catalog, err := f.catalog(ctx)
	if err != nil {
		return nil, err
	}

	books = make([]core.Book, 0, len(catalog))
	for _, s := range catalog {
		if !s.IsBorrowed {
			books = append(books, s.ToBook())
		}
	}

	return books, nil
}

// BorrowedBooks returns the books on loan together with their borrower, optionally only those
// of one user.
func (f Facade) BorrowedBooks(ctx context.Context, userID core.UserIDString) (books []core.BorrowedBook, err error) {
	start := time.Now()
	defer func() { f.observer.QueryFinished(ctx, borrowedBooksQueryType, start, err) }()

	catalog, err := f.catalog(ctx)
	if err != nil {
		return nil, err
	}

	books = make([]core.BorrowedBook, 0)
	for _, s := range catalog {
		if !s.IsBorrowed || (userID != "" && s.BorrowerID != userID) {
			continue
		}

		books = append(books, core.BorrowedBook{Book: s.ToBook(), BorrowerID: s.BorrowerID, BorrowedAt: s.BorrowedAt})
	}

	return books, nil
}

// TransactionHistory lists Transactions with the user names joined in. A user missing from the
// directory keeps an empty name.
func (f Facade) TransactionHistory(ctx context.Context, filter ledger.TransactionFilter) (transactions []core.Transaction, err error) {
	start := time.Now()
	defer func() { f.observer.QueryFinished(ctx, transactionHistoryQueryType, start, err) }()

	transactions, err = f.ledger.ListAll(eventstore.WithEventualConsistency(ctx), filter)
	if err != nil {
		return nil, err
	}

	if f.users == nil || len(transactions) == 0 {
		return transactions, nil
	}

	userIDs := make([]core.UserIDString, 0, len(transactions))
	for _, transaction := range transactions {
		userIDs = append(userIDs, transaction.User.ID)
	}
	slices.Sort(userIDs)
	userIDs = slices.Compact(userIDs)

	usernames, err := f.users.UsernamesByID(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for i := range transactions {
		transactions[i].User.Username = usernames[transactions[i].User.ID]
	}

	return transactions, nil
}

func (f Facade) catalog(ctx context.Context) ([]core.BookState, error) {
	history, _, err := shell.QueryDomainEvents(eventstore.WithEventualConsistency(ctx), f.eventStore, shell.CatalogFilter())
	if err != nil {
		return nil, err
	}

	return core.ProjectCatalog(history), nil
}
