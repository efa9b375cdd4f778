package catalog_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/lending/catalog"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
)

func Test_DecideAddBook(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name    string
		title   string
		author  string
		wantErr error
	}{
		{name: "success", title: "Dune", author: "Herbert"},
		{name: "empty_title", title: "  ", author: "Herbert", wantErr: core.ErrEmptyTitle},
		{name: "empty_author", title: "Dune", author: "", wantErr: core.ErrEmptyAuthor},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			bookID := uuid.New()
			command := catalog.BuildAddBookCommand(bookID, tc.title, tc.author, now)

			// act
			result := catalog.DecideAddBook(command)

			// assert
			if tc.wantErr != nil {
				assert.ErrorIs(t, result.HasError(), tc.wantErr)
				assert.ErrorIs(t, result.HasError(), core.ErrInvalidArgument)
				assert.False(t, result.HasEventToAppend())
				return
			}

			assert.True(t, result.HasEventToAppend())
			assert.Equal(t, core.BuildBookAddedToCatalog(bookID, "Dune", "Herbert", now), result.Event)
		})
	}
}

func Test_DecideAddBook_TrimsInput(t *testing.T) {
	// arrange
	command := catalog.BuildAddBookCommand(uuid.New(), "  Dune ", "\tHerbert\n", time.Now())

	// act
	result := catalog.DecideAddBook(command)

	// assert
	added, ok := result.Event.(core.BookAddedToCatalog)
	assert.True(t, ok)
	assert.Equal(t, "Dune", added.Title)
	assert.Equal(t, "Herbert", added.Author)
}

func Test_DecideUpdateBook_Success_PartialUpdateKeepsOtherField(t *testing.T) {
	// arrange
	bookID := uuid.New()
	now := time.Now()
	history := core.DomainEvents{givenBookAdded(bookID, "T", "A", now.Add(-time.Hour))}
	command := catalog.BuildUpdateBookCommand(bookID.String(), ptr("T2"), nil, now)

	// act
	result := catalog.DecideUpdateBook(history, command)

	// assert
	assert.NoError(t, result.HasError())
	assert.Equal(t, core.BuildBookDetailsUpdated(bookID.String(), "T2", "A", now), result.Event)
}

func Test_DecideUpdateBook_Idempotent_WhenNothingChanges(t *testing.T) {
	// arrange
	bookID := uuid.New()
	now := time.Now()
	history := core.DomainEvents{givenBookAdded(bookID, "T", "A", now.Add(-time.Hour))}
	command := catalog.BuildUpdateBookCommand(bookID.String(), ptr(" T "), ptr("A"), now)

	// act
	result := catalog.DecideUpdateBook(history, command)

	// assert
	assert.True(t, result.IsIdempotent())
	assert.NoError(t, result.HasError())
	assert.Nil(t, result.Event)
}

func Test_DecideUpdateBook_Errors(t *testing.T) {
	bookID := uuid.New()
	now := time.Now()
	added := givenBookAdded(bookID, "T", "A", now.Add(-2*time.Hour))
	removed := core.BuildBookRemovedFromCatalog(bookID.String(), now.Add(-time.Hour))

	testCases := []struct {
		name    string
		history core.DomainEvents
		title   *string
		author  *string
		wantErr error
	}{
		{name: "never_added", history: nil, title: ptr("T2"), wantErr: core.ErrBookNotFound},
		{name: "removed", history: core.DomainEvents{added, removed}, title: ptr("T2"), wantErr: core.ErrBookNotFound},
		{name: "empty_title", history: core.DomainEvents{added}, title: ptr(""), wantErr: core.ErrEmptyTitle},
		{name: "empty_author", history: core.DomainEvents{added}, author: ptr(" "), wantErr: core.ErrEmptyAuthor},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			command := catalog.BuildUpdateBookCommand(bookID.String(), tc.title, tc.author, now)

			// act
			result := catalog.DecideUpdateBook(tc.history, command)

			// assert
			assert.ErrorIs(t, result.HasError(), tc.wantErr)
			assert.False(t, result.HasEventToAppend())
		})
	}
}

func Test_DecideUpdateBook_EventDateNeverGoesBackwards(t *testing.T) {
	// arrange
	bookID := uuid.New()
	lastEventAt := time.Now().Add(time.Hour)
	history := core.DomainEvents{givenBookAdded(bookID, "T", "A", lastEventAt)}
	command := catalog.BuildUpdateBookCommand(bookID.String(), ptr("T2"), nil, time.Now())

	// act
	result := catalog.DecideUpdateBook(history, command)

	// assert
	assert.Equal(t, core.ToOccurredAt(lastEventAt), result.Event.HasOccurredAt())
}

func Test_DecideRemoveBook(t *testing.T) {
	bookID := uuid.New()
	userID := uuid.NewString()
	now := time.Now()
	added := givenBookAdded(bookID, "T", "A", now.Add(-3*time.Hour))
	state := core.BookState{BookID: bookID.String(), Title: "T", Author: "A"}
	borrowed := core.BuildBookBorrowed(uuid.NewString(), state, userID, now.Add(-2*time.Hour))
	state.IsBorrowed, state.BorrowerID = true, userID
	returned := core.BuildBookReturned(uuid.NewString(), state, userID, now.Add(-time.Hour))
	removed := core.BuildBookRemovedFromCatalog(bookID.String(), now.Add(-time.Minute))

	testCases := []struct {
		name    string
		history core.DomainEvents
		wantErr error
	}{
		{name: "success", history: core.DomainEvents{added}},
		{name: "success_after_return", history: core.DomainEvents{added, borrowed, returned}},
		{name: "on_loan", history: core.DomainEvents{added, borrowed}, wantErr: core.ErrBookOnLoan},
		{name: "never_added", history: nil, wantErr: core.ErrBookNotFound},
		{name: "already_removed", history: core.DomainEvents{added, removed}, wantErr: core.ErrBookNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			command := catalog.BuildRemoveBookCommand(bookID.String(), now)

			// act
			result := catalog.DecideRemoveBook(tc.history, command)

			// assert
			if tc.wantErr != nil {
				assert.ErrorIs(t, result.HasError(), tc.wantErr)
				assert.False(t, result.HasEventToAppend())
				return
			}

			assert.NoError(t, result.HasError())
			assert.Equal(t, core.BuildBookRemovedFromCatalog(bookID.String(), now), result.Event)
		})
	}
}

func givenBookAdded(bookID uuid.UUID, title, author string, at time.Time) core.DomainEvent {
	return core.BuildBookAddedToCatalog(bookID, title, author, at)
}

func ptr(s string) *string {
	return &s
}
