package circulation

import (
	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
)

// Policy holds the configurable lending rules.
type Policy struct {
	// EnforceBorrowerIdentity allows only the borrower to return a book.
	EnforceBorrowerIdentity bool

	// MaxLoansPerUser limits the books a user may have on loan at the same time. 0 means unlimited.
	MaxLoansPerUser int
}

// DecideBorrow implements the business logic for borrowing a book.
// This is a pure function: the history must contain the book's stream and, if the policy limits
// loans, the user's loans (see BuildBorrowEventFilter).
//
// Business Rules:
//
//	GIVEN: a book with BookID and a user with UserID
//	WHEN: BorrowBook command is received
//	THEN: BookBorrowed event is generated
//	ERROR: NotFound if the book was never added or was removed
//	ERROR: Conflict(AlreadyBorrowed) if the book is on loan, also if it is on loan to this user
//	ERROR: Conflict(LoanLimitReached) if the user already has MaxLoansPerUser books
func DecideBorrow(history core.DomainEvents, command BorrowCommand, policy Policy) core.DecisionResult {
	if command.UserID == "" {
		return core.RejectedDecision(core.ErrInvalidUserID)
	}

	s := core.ProjectBook(history, command.BookID)

	if !s.Exists {
		return core.RejectedDecision(core.ErrBookNotFound)
	}

	if s.IsBorrowed {
		return core.RejectedDecision(core.ErrAlreadyBorrowed)
	}

	if policy.MaxLoansPerUser > 0 && core.CountActiveLoans(history, command.UserID) >= policy.MaxLoansPerUser {
		return core.RejectedDecision(core.ErrLoanLimitReached)
	}

	return core.SuccessDecision(
		core.BuildBookBorrowed(command.TransactionID, s, command.UserID, core.NotBefore(command.OccurredAt, s.LastOccurredAt)),
	)
}

// DecideReturn implements the business logic for returning a book.
//
// Business Rules:
//
//	GIVEN: a book with BookID and a user with UserID
//	WHEN: ReturnBook command is received
//	THEN: BookReturned event is generated
//	ERROR: NotFound if the book was never added or was removed
//	ERROR: Conflict(NotBorrowed) if the book is not on loan
//	ERROR: Conflict(NotBorrower) if the policy enforces the borrower identity and UserID is not the borrower
func DecideReturn(history core.DomainEvents, command ReturnCommand, policy Policy) core.DecisionResult {
	if command.UserID == "" {
		return core.RejectedDecision(core.ErrInvalidUserID)
	}

	s := core.ProjectBook(history, command.BookID)

	if !s.Exists {
		return core.RejectedDecision(core.ErrBookNotFound)
	}

	if !s.IsBorrowed {
		return core.RejectedDecision(core.ErrNotBorrowed)
	}

	if policy.EnforceBorrowerIdentity && s.BorrowerID != command.UserID {
		return core.RejectedDecision(core.ErrNotBorrower)
	}

	return core.SuccessDecision(
		core.BuildBookReturned(command.TransactionID, s, command.UserID, core.NotBefore(command.OccurredAt, s.LastOccurredAt)),
	)
}

// BuildBorrowEventFilter selects the book's stream. With a loan limit it also selects the user's
// loans: the borrow events of the user and the return events of books the user had borrowed.
// The user's loans are then part of the consistency boundary, so two parallel borrows of
// different books can't both slip past the limit.
func BuildBorrowEventFilter(bookID core.BookIDString, userID core.UserIDString, policy Policy) eventstore.Filter {
	bookStream := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookAddedToCatalogEventType,
			core.BookDetailsUpdatedEventType,
			core.BookRemovedFromCatalogEventType,
			core.BookBorrowedEventType,
			core.BookReturnedEventType,
		).
		AndAnyPredicateOf(eventstore.P("BookID", bookID))

	if policy.MaxLoansPerUser <= 0 {
		return bookStream.Finalize()
	}

	return bookStream.
		OrMatching().
		AnyEventTypeOf(core.BookBorrowedEventType).
		AndAnyPredicateOf(eventstore.P("UserID", userID)).
		OrMatching().
		AnyEventTypeOf(core.BookReturnedEventType).
		AndAnyPredicateOf(eventstore.P("BorrowerID", userID)).
		Finalize()
}
