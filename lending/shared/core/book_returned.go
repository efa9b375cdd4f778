package core

import (
	"time"
)

// BookReturnedEventType is the event type identifier.
const BookReturnedEventType = "BookReturned"

// BookReturned represents a book coming back. It is the "return" Transaction of the ledger.
// UserID is the user who returned the book, BorrowerID the one who had borrowed it.
type BookReturned struct {
	EventType     EventTypeString
	TransactionID TransactionIDString
	BookID        BookIDString
	UserID        UserIDString
	BorrowerID    UserIDString
	Title         string
	Author        string
	OccurredAt    OccurredAtTS
}

// BuildBookReturned creates a new BookReturned event.
func BuildBookReturned(
	transactionID TransactionIDString,
	book BookState,
	userID UserIDString,
	occurredAt time.Time,
) BookReturned {

	return BookReturned{
		EventType:     BookReturnedEventType,
		TransactionID: transactionID,
		BookID:        book.BookID,
		UserID:        userID,
		BorrowerID:    book.BorrowerID,
		Title:         book.Title,
		Author:        book.Author,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e BookReturned) IsEventType() string {
	return BookReturnedEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookReturned) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// HasBookID returns the book the event belongs to.
func (e BookReturned) HasBookID() BookIDString {
	return e.BookID
}
