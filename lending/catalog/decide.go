package catalog

import (
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
)

// DecideAddBook validates a new book.
//
// Business Rules:
//
//	GIVEN: a title and an author
//	WHEN: AddBook command is received
//	THEN: BookAddedToCatalog event is generated
//	ERROR: InvalidArgument if title or author is empty
func DecideAddBook(command AddBookCommand) core.DecisionResult {
	if command.Title == "" {
		return core.RejectedDecision(core.ErrEmptyTitle)
	}

	if command.Author == "" {
		return core.RejectedDecision(core.ErrEmptyAuthor)
	}

	return core.SuccessDecision(
		core.BuildBookAddedToCatalog(command.BookID, command.Title, command.Author, command.OccurredAt),
	)
}

// DecideUpdateBook applies a partial update to the details of a book.
//
// Business Rules:
//
//	GIVEN: a book in the catalog
//	WHEN: UpdateBook command is received
//	THEN: BookDetailsUpdated event with the full new details is generated
//	ERROR: InvalidArgument if a provided title or author is empty
//	ERROR: NotFound if the book was never added or was removed
//	IDEMPOTENCY: if the details would not change, no event is generated
func DecideUpdateBook(history core.DomainEvents, command UpdateBookCommand) core.DecisionResult {
	if command.Title != nil && *command.Title == "" {
		return core.RejectedDecision(core.ErrEmptyTitle)
	}

	if command.Author != nil && *command.Author == "" {
		return core.RejectedDecision(core.ErrEmptyAuthor)
	}

	s := core.ProjectBook(history, command.BookID)
	if !s.Exists {
		return core.RejectedDecision(core.ErrBookNotFound)
	}

	title, author := s.Title, s.Author
	if command.Title != nil {
		title = *command.Title
	}
	if command.Author != nil {
		author = *command.Author
	}

	if title == s.Title && author == s.Author {
		return core.IdempotentDecision()
	}

	return core.SuccessDecision(
		core.BuildBookDetailsUpdated(s.BookID, title, author, core.NotBefore(command.OccurredAt, s.LastOccurredAt)),
	)
}

// DecideRemoveBook removes a book which is not on loan.
//
// Business Rules:
//
//	GIVEN: a book in the catalog
//	WHEN: RemoveBook command is received
//	THEN: BookRemovedFromCatalog event is generated
//	ERROR: NotFound if the book was never added or was already removed
//	ERROR: Conflict(BookOnLoan) if the book is currently borrowed
func DecideRemoveBook(history core.DomainEvents, command RemoveBookCommand) core.DecisionResult {
	s := core.ProjectBook(history, command.BookID)

	if !s.Exists {
		return core.RejectedDecision(core.ErrBookNotFound)
	}

	if s.IsBorrowed {
		return core.RejectedDecision(core.ErrBookOnLoan)
	}

	return core.SuccessDecision(
		core.BuildBookRemovedFromCatalog(s.BookID, core.NotBefore(command.OccurredAt, s.LastOccurredAt)),
	)
}
