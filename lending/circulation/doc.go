// Package circulation is the Lending Service: the only writer of BookBorrowed and BookReturned
// events, and therefore of a book's availability.
//
// Borrow and Return run read-decide-append under the per-book lock. The conditional append makes
// "mark as borrowed" and "record the Transaction" a single atomic step, so a book is never on loan
// without its ledger entry. Another process winning the race makes the append fail; the command is
// then decided again against the winner's state.
package circulation
