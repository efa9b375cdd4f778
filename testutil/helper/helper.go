package helper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

func GivenUniqueID(t testing.TB) uuid.UUID {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return id
}

func QueryMaxSequenceNumberBeforeAppend(t testing.TB, ctx context.Context, es eventstore.EventStore, filter eventstore.Filter) eventstore.MaxSequenceNumberUint {
	_, maxSequenceNumBeforeAppend, err := es.Query(ctx, filter)
	assert.NoError(t, err, "error in arranging test data")

	return maxSequenceNumBeforeAppend
}

func FixtureBookAddedToCatalog(bookID uuid.UUID, fakeClock time.Time) core.BookAddedToCatalog {
	return core.BuildBookAddedToCatalog(bookID, "Learning Domain-Driven Design", "Vlad Khononov", fakeClock)
}

func FixtureBookBorrowed(bookID uuid.UUID, userID uuid.UUID, fakeClock time.Time) core.BookBorrowed {
	book := core.BookState{BookID: bookID.String(), Title: "Learning Domain-Driven Design", Author: "Vlad Khononov"}

	return core.BuildBookBorrowed(uuid.NewString(), book, userID.String(), fakeClock)
}

func FixtureBookReturned(bookID uuid.UUID, userID uuid.UUID, fakeClock time.Time) core.BookReturned {
	book := core.BookState{
		BookID:     bookID.String(),
		Title:      "Learning Domain-Driven Design",
		Author:     "Vlad Khononov",
		IsBorrowed: true,
		BorrowerID: userID.String(),
	}

	return core.BuildBookReturned(uuid.NewString(), book, userID.String(), fakeClock)
}

func ToStorable(t testing.TB, domainEvent core.DomainEvent) eventstore.StorableEvent {
	storableEvent, err := shell.StorableEventWithEmptyMetadataFrom(domainEvent)
	assert.NoError(t, err, "error in arranging test data")

	return storableEvent
}

// GivenEventWasAppended appends the event to the stream of its book.
func GivenEventWasAppended(t testing.TB, ctx context.Context, es eventstore.EventStore, event core.DomainEvent) core.DomainEvent {
	filter := shell.BookStreamFilter(event.HasBookID())
	err := es.Append(
		ctx,
		filter,
		QueryMaxSequenceNumberBeforeAppend(t, ctx, es, filter),
		ToStorable(t, event),
	)
	assert.NoError(t, err, "error in arranging test data")

	return event
}

func GivenBookAddedToCatalogWasAppended(t testing.TB, ctx context.Context, es eventstore.EventStore, bookID uuid.UUID, fakeClock time.Time) core.DomainEvent {
	return GivenEventWasAppended(t, ctx, es, FixtureBookAddedToCatalog(bookID, fakeClock))
}

func GivenBookBorrowedWasAppended(t testing.TB, ctx context.Context, es eventstore.EventStore, bookID uuid.UUID, userID uuid.UUID, fakeClock time.Time) core.DomainEvent {
	return GivenEventWasAppended(t, ctx, es, FixtureBookBorrowed(bookID, userID, fakeClock))
}

func GivenBookReturnedWasAppended(t testing.TB, ctx context.Context, es eventstore.EventStore, bookID uuid.UUID, userID uuid.UUID, fakeClock time.Time) core.DomainEvent {
	return GivenEventWasAppended(t, ctx, es, FixtureBookReturned(bookID, userID, fakeClock))
}

func MustParseUUID(t testing.TB, s string) uuid.UUID {
	id, err := uuid.Parse(s)
	assert.NoError(t, err, "error in arranging test data")

	return id
}
