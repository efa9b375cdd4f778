package core

import (
	"time"
)

// BookBorrowedEventType is the event type identifier.
const BookBorrowedEventType = "BookBorrowed"

// BookBorrowed represents a patron borrowing a book. It is the "borrow" Transaction of the ledger.
// Title and Author are a snapshot taken at the time of the loan.
type BookBorrowed struct {
	EventType     EventTypeString
	TransactionID TransactionIDString
	BookID        BookIDString
	UserID        UserIDString
	Title         string
	Author        string
	OccurredAt    OccurredAtTS
}

// BuildBookBorrowed creates a new BookBorrowed event.
func BuildBookBorrowed(
	transactionID TransactionIDString,
	book BookState,
	userID UserIDString,
	occurredAt time.Time,
) BookBorrowed {

	return BookBorrowed{
		EventType:     BookBorrowedEventType,
		TransactionID: transactionID,
		BookID:        book.BookID,
		UserID:        userID,
		Title:         book.Title,
		Author:        book.Author,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e BookBorrowed) IsEventType() string {
	return BookBorrowedEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookBorrowed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// HasBookID returns the book the event belongs to.
func (e BookBorrowed) HasBookID() BookIDString {
	return e.BookID
}
