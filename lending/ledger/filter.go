package ledger

import (
	"time"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
)

// Order of a transaction listing.
type Order = string

const (
	OrderOldestFirst Order = "oldest"
	OrderNewestFirst Order = "newest"

	DefaultLimit = 50
	MaxLimit     = 500
)

// TransactionFilter narrows down ListAll. Zero values mean "no constraint", except Order, which
// defaults to newest-first, and Limit, which defaults to DefaultLimit.
type TransactionFilter struct {
	UserID core.UserIDString
	BookID core.BookIDString
	Type   core.TransactionType
	From   time.Time
	Until  time.Time
	Order  Order
	Limit  int
	Offset int
}

// Normalized validates the filter and fills in the defaults. Limits above MaxLimit are capped.
func (f TransactionFilter) Normalized() (TransactionFilter, error) {
	switch f.Type {
	case "", core.TransactionTypeBorrow, core.TransactionTypeReturn:
	default:
		return f, core.ErrInvalidTransactionType
	}

	switch f.Order {
	case "":
		f.Order = OrderNewestFirst
	case OrderOldestFirst, OrderNewestFirst:
	default:
		return f, core.ErrInvalidOrder
	}

	if f.Limit < 0 || f.Offset < 0 {
		return f, core.ErrInvalidPaging
	}

	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}

	f.Limit = min(f.Limit, MaxLimit)

	if !f.From.IsZero() && !f.Until.IsZero() && f.From.After(f.Until) {
		return f, core.ErrInvalidTimeRange
	}

	return f, nil
}

// eventFilter translates the filter into an event store filter.
func (f TransactionFilter) eventFilter() eventstore.Filter {
	eventTypes := []string{core.BookBorrowedEventType, core.BookReturnedEventType}
	switch f.Type {
	case core.TransactionTypeBorrow:
		eventTypes = []string{core.BookBorrowedEventType}
	case core.TransactionTypeReturn:
		eventTypes = []string{core.BookReturnedEventType}
	}

	var predicates []eventstore.FilterPredicate
	if f.UserID != "" {
		predicates = append(predicates, eventstore.P("UserID", f.UserID))
	}
	if f.BookID != "" {
		predicates = append(predicates, eventstore.P("BookID", f.BookID))
	}

	item := eventstore.BuildEventFilter().Matching().AnyEventTypeOf(eventTypes[0], eventTypes[1:]...)

	var builder eventstore.TimeRangeBuilder = item
	if len(predicates) > 0 {
		builder = item.AndAllPredicatesOf(predicates[0], predicates[1:]...)
	}

	return builder.OccurredFrom(f.From).OccurredUntil(f.Until).Finalize()
}
