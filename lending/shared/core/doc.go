// Package core contains the pure domain of the lending service: domain events, read models,
// the error taxonomy, decision results and the projections which derive a book's state
// from its event stream.
//
// Nothing in here does I/O. A book's availability is never stored as a flag; it is what
// ProjectBook computes from the book's BookBorrowed and BookReturned events.
package core
