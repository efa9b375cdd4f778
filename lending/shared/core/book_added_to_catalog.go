package core

import (
	"time"

	"github.com/google/uuid"
)

// BookAddedToCatalogEventType is the event type identifier.
const BookAddedToCatalogEventType = "BookAddedToCatalog"

// BookAddedToCatalog represents when a librarian added a book to the catalog.
type BookAddedToCatalog struct {
	EventType  EventTypeString
	BookID     BookIDString
	Title      string
	Author     string
	OccurredAt OccurredAtTS
}

// BuildBookAddedToCatalog creates a new BookAddedToCatalog event.
func BuildBookAddedToCatalog(bookID uuid.UUID, title string, author string, occurredAt time.Time) BookAddedToCatalog {
	return BookAddedToCatalog{
		EventType:  BookAddedToCatalogEventType,
		BookID:     bookID.String(),
		Title:      title,
		Author:     author,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e BookAddedToCatalog) IsEventType() string {
	return BookAddedToCatalogEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookAddedToCatalog) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// HasBookID returns the book the event belongs to.
func (e BookAddedToCatalog) HasBookID() BookIDString {
	return e.BookID
}
