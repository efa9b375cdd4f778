package circulation_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/lending/circulation"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/testutil/helper"
)

func Test_DecideBorrow(t *testing.T) {
	bookID := uuid.New()
	userID := uuid.New()
	otherUserID := uuid.New()
	now := time.Now()
	added := helper.FixtureBookAddedToCatalog(bookID, now.Add(-4*time.Hour))
	borrowedByUser := helper.FixtureBookBorrowed(bookID, userID, now.Add(-3*time.Hour))
	borrowedByOther := helper.FixtureBookBorrowed(bookID, otherUserID, now.Add(-3*time.Hour))
	returned := helper.FixtureBookReturned(bookID, userID, now.Add(-2*time.Hour))
	removed := core.BuildBookRemovedFromCatalog(bookID.String(), now.Add(-time.Hour))

	testCases := []struct {
		name    string
		history core.DomainEvents
		wantErr error
	}{
		{name: "success", history: core.DomainEvents{added}},
		{name: "success_after_return", history: core.DomainEvents{added, borrowedByUser, returned}},
		{name: "never_added", history: nil, wantErr: core.ErrBookNotFound},
		{name: "removed", history: core.DomainEvents{added, removed}, wantErr: core.ErrBookNotFound},
		{name: "borrowed_by_other_user", history: core.DomainEvents{added, borrowedByOther}, wantErr: core.ErrAlreadyBorrowed},
		{name: "borrowed_by_same_user", history: core.DomainEvents{added, borrowedByUser}, wantErr: core.ErrAlreadyBorrowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			command := circulation.BuildBorrowCommand(bookID.String(), userID.String(), now)

			// act
			result := circulation.DecideBorrow(tc.history, command, circulation.Policy{})

			// assert
			if tc.wantErr != nil {
				assert.ErrorIs(t, result.HasError(), tc.wantErr)
				assert.False(t, result.HasEventToAppend())
				return
			}

			assert.NoError(t, result.HasError())
			borrowed, ok := result.Event.(core.BookBorrowed)
			assert.True(t, ok)
			assert.Equal(t, command.TransactionID, borrowed.TransactionID)
			assert.Equal(t, bookID.String(), borrowed.BookID)
			assert.Equal(t, userID.String(), borrowed.UserID)
			assert.Equal(t, "Learning Domain-Driven Design", borrowed.Title)
			assert.Equal(t, core.ToOccurredAt(now), borrowed.OccurredAt)
		})
	}
}

func Test_DecideBorrow_LoanLimit(t *testing.T) {
	// arrange
	bookID := uuid.New()
	userID := uuid.New()
	now := time.Now()
	policy := circulation.Policy{MaxLoansPerUser: 2}
	onLoan1, onLoan2, returnedBook := uuid.New(), uuid.New(), uuid.New()

	history := core.DomainEvents{
		helper.FixtureBookAddedToCatalog(bookID, now),
		helper.FixtureBookBorrowed(onLoan1, userID, now),
		helper.FixtureBookBorrowed(returnedBook, userID, now),
		helper.FixtureBookReturned(returnedBook, userID, now),
	}
	command := circulation.BuildBorrowCommand(bookID.String(), userID.String(), now)

	// act
	belowLimit := circulation.DecideBorrow(history, command, policy)
	atLimit := circulation.DecideBorrow(append(history, helper.FixtureBookBorrowed(onLoan2, userID, now)), command, policy)

	// assert
	assert.NoError(t, belowLimit.HasError())
	assert.ErrorIs(t, atLimit.HasError(), core.ErrLoanLimitReached)
	assert.ErrorIs(t, atLimit.HasError(), core.ErrConflict)
}

func Test_DecideBorrow_EventDateNeverGoesBackwards(t *testing.T) {
	// arrange
	bookID := uuid.New()
	lastEventAt := time.Now().Add(time.Hour)
	history := core.DomainEvents{helper.FixtureBookAddedToCatalog(bookID, lastEventAt)}
	command := circulation.BuildBorrowCommand(bookID.String(), uuid.NewString(), time.Now())

	// act
	result := circulation.DecideBorrow(history, command, circulation.Policy{})

	// assert
	assert.Equal(t, core.ToOccurredAt(lastEventAt), result.Event.HasOccurredAt())
}

func Test_DecideReturn(t *testing.T) {
	bookID := uuid.New()
	borrowerID := uuid.New()
	otherUserID := uuid.New()
	now := time.Now()
	added := helper.FixtureBookAddedToCatalog(bookID, now.Add(-4*time.Hour))
	borrowed := helper.FixtureBookBorrowed(bookID, borrowerID, now.Add(-3*time.Hour))
	returned := helper.FixtureBookReturned(bookID, borrowerID, now.Add(-2*time.Hour))

	testCases := []struct {
		name    string
		history core.DomainEvents
		userID  uuid.UUID
		policy  circulation.Policy
		wantErr error
	}{
		{name: "success_by_borrower", history: core.DomainEvents{added, borrowed}, userID: borrowerID},
		{name: "success_by_other_user_without_enforcement", history: core.DomainEvents{added, borrowed}, userID: otherUserID},
		{
			name:    "other_user_with_enforcement",
			history: core.DomainEvents{added, borrowed},
			userID:  otherUserID,
			policy:  circulation.Policy{EnforceBorrowerIdentity: true},
			wantErr: core.ErrNotBorrower,
		},
		{name: "never_borrowed", history: core.DomainEvents{added}, userID: borrowerID, wantErr: core.ErrNotBorrowed},
		{name: "already_returned", history: core.DomainEvents{added, borrowed, returned}, userID: borrowerID, wantErr: core.ErrNotBorrowed},
		{name: "never_added", history: nil, userID: borrowerID, wantErr: core.ErrBookNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			command := circulation.BuildReturnCommand(bookID.String(), tc.userID.String(), now)

			// act
			result := circulation.DecideReturn(tc.history, command, tc.policy)

			// assert
			if tc.wantErr != nil {
				assert.ErrorIs(t, result.HasError(), tc.wantErr)
				assert.False(t, result.HasEventToAppend())
				return
			}

			assert.NoError(t, result.HasError())
			returnedEvent, ok := result.Event.(core.BookReturned)
			assert.True(t, ok)
			assert.Equal(t, tc.userID.String(), returnedEvent.UserID)
			assert.Equal(t, borrowerID.String(), returnedEvent.BorrowerID)
		})
	}
}

func Test_DecideBorrow_RejectsEmptyUser(t *testing.T) {
	// arrange
	bookID := uuid.New()
	history := core.DomainEvents{helper.FixtureBookAddedToCatalog(bookID, time.Now())}

	// act
	result := circulation.DecideBorrow(history, circulation.BuildBorrowCommand(bookID.String(), "", time.Now()), circulation.Policy{})

	// assert
	assert.ErrorIs(t, result.HasError(), core.ErrInvalidUserID)
}
