package shell

import (
	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
)

// BookStreamFilter selects every event of one book. It is the consistency boundary of all
// commands that change a single book.
func BookStreamFilter(bookID core.BookIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookAddedToCatalogEventType,
			core.BookDetailsUpdatedEventType,
			core.BookRemovedFromCatalogEventType,
			core.BookBorrowedEventType,
			core.BookReturnedEventType,
		).
		AndAnyPredicateOf(eventstore.P("BookID", bookID)).
		Finalize()
}

// CatalogFilter selects all events which make up the catalog.
func CatalogFilter() eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookAddedToCatalogEventType,
			core.BookDetailsUpdatedEventType,
			core.BookRemovedFromCatalogEventType,
			core.BookBorrowedEventType,
			core.BookReturnedEventType,
		).
		Finalize()
}
