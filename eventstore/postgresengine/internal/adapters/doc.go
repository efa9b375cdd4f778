// Package adapters provides the database adapters of the PostgreSQL event store.
//
// pgxpool.Pool, sql.DB and sqlx.DB are wrapped behind one DBAdapter so the engine builds its
// SQL once and runs it on whatever connection type the service was configured with. Every
// adapter can carry an optional replica which serves reads that were marked with
// eventstore.WithEventualConsistency.
package adapters
