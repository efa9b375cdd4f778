package circulation

import (
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

const (
	borrowCommandType = "BorrowBook"
	returnCommandType = "ReturnBook"
)

// BorrowCommand represents the intent of a user to borrow a book.
// TransactionID is assigned when the command is built, so retries reuse it.
type BorrowCommand struct {
	TransactionID core.TransactionIDString
	BookID        core.BookIDString
	UserID        core.UserIDString
	OccurredAt    core.OccurredAtTS
}

func BuildBorrowCommand(bookID core.BookIDString, userID core.UserIDString, occurredAt time.Time) BorrowCommand {
	return BorrowCommand{
		TransactionID: shell.NewID().String(),
		BookID:        bookID,
		UserID:        userID,
		OccurredAt:    core.ToOccurredAt(occurredAt),
	}
}

func (c BorrowCommand) CommandType() string {
	return borrowCommandType
}

// ReturnCommand represents the intent of a user to return a book.
type ReturnCommand struct {
	TransactionID core.TransactionIDString
	BookID        core.BookIDString
	UserID        core.UserIDString
	OccurredAt    core.OccurredAtTS
}

func BuildReturnCommand(bookID core.BookIDString, userID core.UserIDString, occurredAt time.Time) ReturnCommand {
	return ReturnCommand{
		TransactionID: shell.NewID().String(),
		BookID:        bookID,
		UserID:        userID,
		OccurredAt:    core.ToOccurredAt(occurredAt),
	}
}

func (c ReturnCommand) CommandType() string {
	return returnCommandType
}
