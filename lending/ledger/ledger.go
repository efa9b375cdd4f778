package ledger

import (
	"context"
	"slices"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

// Ledger lists Transactions. The consistency level of the context decides whether a replica
// may serve the read.
type Ledger struct {
	eventStore shell.EventStore
}

func NewLedger(eventStore shell.EventStore) Ledger {
	return Ledger{eventStore: eventStore}
}

// ListForBook returns all Transactions of a book in chronological order.
// A book without Transactions, including an unknown book or an empty ID, has an empty list.
func (l Ledger) ListForBook(ctx context.Context, bookID core.BookIDString) ([]core.Transaction, error) {
	if bookID == "" {
		// an empty ID would build a filter without predicate, which matches every book
		return []core.Transaction{}, nil
	}

	return l.list(ctx, TransactionFilter{BookID: bookID}.eventFilter())
}

// ListAll returns the Transactions matching the filter, ordered and paginated as requested.
func (l Ledger) ListAll(ctx context.Context, filter TransactionFilter) ([]core.Transaction, error) {
	filter, err := filter.Normalized()
	if err != nil {
		return nil, err
	}

	transactions, err := l.list(ctx, filter.eventFilter())
	if err != nil {
		return nil, err
	}

	if filter.Order == OrderNewestFirst {
		slices.Reverse(transactions)
	}

	if filter.Offset >= len(transactions) {
		return []core.Transaction{}, nil
	}

	end := min(filter.Offset+filter.Limit, len(transactions))

	return transactions[filter.Offset:end], nil
}

func (l Ledger) list(ctx context.Context, filter eventstore.Filter) ([]core.Transaction, error) {
	storableEvents, _, err := l.eventStore.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	transactions := make([]core.Transaction, 0, len(storableEvents))
	for _, storableEvent := range storableEvents {
		domainEvent, err := shell.DomainEventFrom(storableEvent)
		if err != nil {
			return nil, err
		}

		if transaction, ok := core.TransactionFrom(domainEvent, storableEvent.SequenceNumber); ok {
			transactions = append(transactions, transaction)
		}
	}

	return transactions, nil
}
