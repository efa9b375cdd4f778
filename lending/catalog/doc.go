// Package catalog holds the Catalog Store reads (Get, List) and the Catalog Admin commands
// (AddBook, UpdateBook, RemoveBook).
//
// Every command follows the same workflow: query the book's event stream, project the BookState,
// decide with a pure function and append the decided event conditionally on the stream not having
// changed in between. A removed book can't be borrowed, updated or removed again.
package catalog
