package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
)

const (
	addBookCommandType    = "AddBook"
	updateBookCommandType = "UpdateBook"
	removeBookCommandType = "RemoveBook"
)

// AddBookCommand represents the intent to add a new book to the catalog.
type AddBookCommand struct {
	BookID     uuid.UUID
	Title      string
	Author     string
	OccurredAt core.OccurredAtTS
}

// BuildAddBookCommand creates an AddBookCommand. Title and author are trimmed.
func BuildAddBookCommand(bookID uuid.UUID, title string, author string, occurredAt time.Time) AddBookCommand {
	return AddBookCommand{
		BookID:     bookID,
		Title:      strings.TrimSpace(title),
		Author:     strings.TrimSpace(author),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}

func (c AddBookCommand) CommandType() string {
	return addBookCommandType
}

// UpdateBookCommand is a partial update: a nil field stays unchanged.
type UpdateBookCommand struct {
	BookID     core.BookIDString
	Title      *string
	Author     *string
	OccurredAt core.OccurredAtTS
}

// BuildUpdateBookCommand creates an UpdateBookCommand. Provided title and author are trimmed.
func BuildUpdateBookCommand(bookID core.BookIDString, title *string, author *string, occurredAt time.Time) UpdateBookCommand {
	return UpdateBookCommand{
		BookID:     bookID,
		Title:      trimmed(title),
		Author:     trimmed(author),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}

func (c UpdateBookCommand) CommandType() string {
	return updateBookCommandType
}

// RemoveBookCommand represents the intent to remove a book from the catalog.
type RemoveBookCommand struct {
	BookID     core.BookIDString
	OccurredAt core.OccurredAtTS
}

func BuildRemoveBookCommand(bookID core.BookIDString, occurredAt time.Time) RemoveBookCommand {
	return RemoveBookCommand{
		BookID:     bookID,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}

func (c RemoveBookCommand) CommandType() string {
	return removeBookCommandType
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}

	t := strings.TrimSpace(*s)

	return &t
}
