// Package shell contains the imperative shell shared by the lending features: mapping between
// domain events and storable events, event metadata, the retry loop for optimistic concurrency,
// per-book locks and the observability helpers of the command and query handlers.
package shell
