// Package ledger is the read side of the Loan Ledger: the ordered, append-only sequence of
// borrow and return Transactions. Transactions are appended by the circulation package as
// BookBorrowed and BookReturned events; the event store never updates or deletes them.
package ledger
