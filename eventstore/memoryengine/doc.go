// Package memoryengine provides an in-process implementation of eventstore.EventStore.
//
// It has the same semantics as the PostgreSQL engine: a global sequence number starting at 1,
// filters with event types, string payload predicates and time ranges, and a conditional
// Append which fails with eventstore.ErrConcurrencyConflict if the filtered stream moved on.
// Events live only as long as the process. It backs the development mode of lendingd and
// the unit tests of the lending packages.
package memoryengine
