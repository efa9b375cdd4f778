// Package eventstore provides the core abstractions and types of the lending ledger's event store.
//
// Every state change of the library (a book added, updated or removed, a book borrowed or returned)
// is stored as an immutable event. The store supports "dynamic event streams": a consistency
// boundary is not a fixed stream ID but whatever a Filter selects, e.g. all events of one book.
//
// The event store supports dynamic filtering of events based on:
//   - Event types
//   - JSON payload predicates
//   - Time ranges (occurred from/until)
//
// Key types:
//   - Filter: Defines criteria for querying events
//   - StorableEvent: Represents an event that can be stored and retrieved
//   - StorableEvents: Collection of storable events
//
// Common usage pattern:
//
//	// Create a filter for all events of one book
//	filter := BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(
//			core.BookBorrowedEventType,
//			core.BookReturnedEventType).
//		AndAnyPredicateOf(P("BookID", bookID.String())).
//		Finalize()
//
//	events, maxSeq, err := store.Query(ctx, filter)
//	if err != nil {
//		// handle error
//	}
//
//	newEvent, _ := eventstore.BuildStorableEvent(eventType, time.Now(), payload, metadata)
//	err = store.Append(ctx, filter, maxSeq, newEvent)
package eventstore
