package core

import (
	"time"
)

// Role of an authenticated user.
type Role = string

const (
	RoleAdmin  Role = "admin"
	RolePatron Role = "patron"
)

// TransactionType is either TransactionTypeBorrow or TransactionTypeReturn.
type TransactionType = string

const (
	TransactionTypeBorrow TransactionType = "borrow"
	TransactionTypeReturn TransactionType = "return"
)

// Book is the catalog view of a book. IsBorrowed is derived from the book's ledger entries.
type Book struct {
	ID         BookIDString `json:"id"`
	Title      string       `json:"title"`
	Author     string       `json:"author"`
	IsBorrowed bool         `json:"isBorrowed"`
	AddedAt    time.Time    `json:"addedAt"`
}

// BorrowedBook is a Book on loan together with its current borrower.
type BorrowedBook struct {
	Book
	BorrowerID UserIDString `json:"borrowerId"`
	BorrowedAt time.Time    `json:"borrowedAt"`
}

// User is an authenticated user as resolved by the credential collaborator.
type User struct {
	ID       UserIDString `json:"id"`
	Username string       `json:"username"`
	Role     Role         `json:"role"`
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// BookRef is the book snapshot carried by a Transaction.
type BookRef struct {
	ID     BookIDString `json:"id"`
	Title  string       `json:"title"`
	Author string       `json:"author"`
}

// UserRef is the user a Transaction refers to. Username is joined in by the query facade.
type UserRef struct {
	ID       UserIDString `json:"id"`
	Username string       `json:"username"`
}

// Transaction is a ledger entry: the projection of one BookBorrowed or BookReturned event.
type Transaction struct {
	ID             TransactionIDString `json:"id"`
	Book           BookRef             `json:"book"`
	User           UserRef             `json:"user"`
	Type           TransactionType     `json:"type"`
	Date           time.Time           `json:"date"`
	SequenceNumber uint                `json:"sequence,omitempty"`
}

// TransactionFrom maps a ledger event to a Transaction. ok is false for all other events.
func TransactionFrom(event DomainEvent, sequenceNumber uint) (Transaction, bool) {
	switch e := event.(type) {
	case BookBorrowed:
		return Transaction{
			ID:             e.TransactionID,
			Book:           BookRef{ID: e.BookID, Title: e.Title, Author: e.Author},
			User:           UserRef{ID: e.UserID},
			Type:           TransactionTypeBorrow,
			Date:           e.OccurredAt,
			SequenceNumber: sequenceNumber,
		}, true

	case BookReturned:
		return Transaction{
			ID:             e.TransactionID,
			Book:           BookRef{ID: e.BookID, Title: e.Title, Author: e.Author},
			User:           UserRef{ID: e.UserID},
			Type:           TransactionTypeReturn,
			Date:           e.OccurredAt,
			SequenceNumber: sequenceNumber,
		}, true
	}

	return Transaction{}, false
}
