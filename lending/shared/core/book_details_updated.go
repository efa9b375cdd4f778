package core

import (
	"time"
)

// BookDetailsUpdatedEventType is the event type identifier.
const BookDetailsUpdatedEventType = "BookDetailsUpdated"

// BookDetailsUpdated carries the full title and author of a book after an update.
type BookDetailsUpdated struct {
	EventType  EventTypeString
	BookID     BookIDString
	Title      string
	Author     string
	OccurredAt OccurredAtTS
}

// BuildBookDetailsUpdated creates a new BookDetailsUpdated event.
func BuildBookDetailsUpdated(bookID BookIDString, title string, author string, occurredAt time.Time) BookDetailsUpdated {
	return BookDetailsUpdated{
		EventType:  BookDetailsUpdatedEventType,
		BookID:     bookID,
		Title:      title,
		Author:     author,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e BookDetailsUpdated) IsEventType() string {
	return BookDetailsUpdatedEventType
}

func (e BookDetailsUpdated) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e BookDetailsUpdated) HasBookID() BookIDString {
	return e.BookID
}
