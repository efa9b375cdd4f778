package core

import (
	"errors"
)

// The error taxonomy. Every error returned by a lending operation matches exactly one of these
// with errors.Is, which is what the transport boundary maps to status codes.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
)

// ReasonError is a taxonomy error with a specific reason, e.g. Conflict(AlreadyBorrowed).
type ReasonError struct {
	kind   error
	reason string
}

func newReason(kind error, reason string) *ReasonError {
	return &ReasonError{kind: kind, reason: reason}
}

func (e *ReasonError) Error() string {
	return e.reason
}

// NewInvalidArgument creates an InvalidArgument error for input rejected at the request boundary.
func NewInvalidArgument(reason string) *ReasonError {
	return newReason(ErrInvalidArgument, reason)
}

// Unwrap returns the taxonomy error.
func (e *ReasonError) Unwrap() error {
	return e.kind
}

// Kind returns the taxonomy error.
func (e *ReasonError) Kind() error {
	return e.kind
}

var (
	ErrEmptyTitle             = newReason(ErrInvalidArgument, "title must not be empty")
	ErrEmptyAuthor            = newReason(ErrInvalidArgument, "author must not be empty")
	ErrInvalidUserID          = newReason(ErrInvalidArgument, "user id is not valid")
	ErrInvalidTransactionType = newReason(ErrInvalidArgument, "transaction type must be borrow or return")
	ErrInvalidOrder           = newReason(ErrInvalidArgument, "order must be oldest or newest")
	ErrInvalidPaging          = newReason(ErrInvalidArgument, "limit and offset must not be negative")
	ErrInvalidTimeRange       = newReason(ErrInvalidArgument, "from must not be after until")
	ErrEmptyUsername          = newReason(ErrInvalidArgument, "username must not be empty")
	ErrWeakPassword           = newReason(ErrInvalidArgument, "password must have at least 8 characters")
	ErrInvalidRole            = newReason(ErrInvalidArgument, "role must be admin or patron")

	ErrBookNotFound = newReason(ErrNotFound, "book not found")
	ErrUserNotFound = newReason(ErrNotFound, "user not found")

	ErrAlreadyBorrowed  = newReason(ErrConflict, "book is already borrowed")
	ErrNotBorrowed      = newReason(ErrConflict, "book is not borrowed")
	ErrBookOnLoan       = newReason(ErrConflict, "book is on loan")
	ErrNotBorrower      = newReason(ErrConflict, "book was borrowed by another user")
	ErrLoanLimitReached = newReason(ErrConflict, "user has reached the loan limit")
	ErrConcurrentChange = newReason(ErrConflict, "book was changed concurrently, please retry")
	ErrUsernameTaken    = newReason(ErrConflict, "username is already taken")

	ErrMissingCredential = newReason(ErrUnauthorized, "missing credential")
	ErrInvalidCredential = newReason(ErrUnauthorized, "invalid credential")
	ErrForbidden         = newReason(ErrUnauthorized, "insufficient role")
)
