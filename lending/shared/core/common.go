package core

import (
	"time"
)

// BookIDString represents a book identifier.
type BookIDString = string

// UserIDString represents a user identifier.
type UserIDString = string

// TransactionIDString represents a transaction identifier.
type TransactionIDString = string

// EventTypeString represents the type of a domain event.
type EventTypeString = string

// OccurredAtTS represents when an event occurred.
type OccurredAtTS = time.Time

// ToOccurredAt converts a time to OccurredAtTS with UTC normalization and microsecond precision.
// PostgreSQL stores microseconds, so events read back compare equal to the ones written.
func ToOccurredAt(t time.Time) OccurredAtTS {
	return t.UTC().Truncate(time.Microsecond)
}

// NotBefore clamps now to last, so event dates of one book never go backwards.
func NotBefore(now time.Time, last time.Time) OccurredAtTS {
	now = ToOccurredAt(now)

	if now.Before(last) {
		return last
	}

	return now
}
