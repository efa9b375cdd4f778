// Package queries is the read-only Query Facade: available books, borrowed books and the
// transaction history joined with user names. All reads allow eventual consistency, so they are
// served by the replica database when one is configured.
package queries
