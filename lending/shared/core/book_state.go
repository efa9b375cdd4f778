package core

import (
	"time"
)

// BookState is everything the lending rules need to know about one book.
type BookState struct {
	BookID         BookIDString
	Exists         bool // added and not removed
	Removed        bool
	Title          string
	Author         string
	AddedAt        time.Time
	IsBorrowed     bool
	BorrowerID     UserIDString
	BorrowedAt     time.Time
	LastOccurredAt time.Time
}

// ProjectBook replays the history and returns the state of one book.
// Events of other books are ignored, so the history may be any superset of the book's stream.
func ProjectBook(history DomainEvents, bookID BookIDString) BookState {
	s := BookState{BookID: bookID}

	for _, event := range history {
		if event.HasBookID() != bookID {
			continue
		}

		s.apply(event)
	}

	return s
}

func (s *BookState) apply(event DomainEvent) {
	if event.HasOccurredAt().After(s.LastOccurredAt) {
		s.LastOccurredAt = event.HasOccurredAt()
	}

	switch e := event.(type) {
	case BookAddedToCatalog:
		if s.Removed {
			return
		}
		s.Exists = true
		s.Title = e.Title
		s.Author = e.Author
		s.AddedAt = e.OccurredAt

	case BookDetailsUpdated:
		s.Title = e.Title
		s.Author = e.Author

	case BookRemovedFromCatalog:
		s.Exists = false
		s.Removed = true

	case BookBorrowed:
		s.IsBorrowed = true
		s.BorrowerID = e.UserID
		s.BorrowedAt = e.OccurredAt

	case BookReturned:
		s.IsBorrowed = false
		s.BorrowerID = ""
		s.BorrowedAt = time.Time{}
	}
}

// ToBook returns the catalog view of the state.
func (s BookState) ToBook() Book {
	return Book{
		ID:         s.BookID,
		Title:      s.Title,
		Author:     s.Author,
		IsBorrowed: s.IsBorrowed,
		AddedAt:    s.AddedAt,
	}
}

// CountActiveLoans returns how many books the user currently has on loan according to the history.
func CountActiveLoans(history DomainEvents, userID UserIDString) int {
	onLoan := make(map[BookIDString]bool)

	for _, event := range history {
		switch e := event.(type) {
		case BookBorrowed:
			onLoan[e.BookID] = e.UserID == userID

		case BookReturned:
			delete(onLoan, e.BookID)
		}
	}

	count := 0
	for _, isLentToUser := range onLoan {
		if isLentToUser {
			count++
		}
	}

	return count
}

// ProjectCatalog replays the catalog history and returns all books which are currently in the
// catalog, in the order they were added.
func ProjectCatalog(history DomainEvents) []BookState {
	var order []BookIDString
	books := make(map[BookIDString]*BookState)

	for _, event := range history {
		bookID := event.HasBookID()

		if _, seen := books[bookID]; !seen {
			if _, isAdded := event.(BookAddedToCatalog); !isAdded {
				continue
			}
			order = append(order, bookID)
			books[bookID] = &BookState{BookID: bookID}
		}

		books[bookID].apply(event)
	}

	catalog := make([]BookState, 0, len(order))
	for _, bookID := range order {
		if s := books[bookID]; s.Exists {
			catalog = append(catalog, *s)
		}
	}

	return catalog
}
