// Package postgresengine provides a PostgreSQL implementation of eventstore.EventStore.
//
// It supports three connection types (pgxpool.Pool, sql.DB with lib/pq, sqlx.DB), each with an
// optional read replica for queries marked with eventstore.WithEventualConsistency.
//
// Append is a single conditional INSERT: a CTE computes the current max sequence number of the
// filtered stream, and rows are only inserted if it still equals the expected one. The statement
// runs in a serializable transaction, so two writers racing on overlapping streams can't both win.
// A serialization failure is reported as eventstore.ErrConcurrencyConflict.
//
//	db, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(
//		db,
//		postgresengine.WithTableName("lending_events"),
//		postgresengine.WithLogger(slog.Default()),
//	)
//	_ = store.CreateSchema(ctx)
//
//	events, maxSeq, _ := store.Query(ctx, filter)
//	err := store.Append(ctx, filter, maxSeq, newEvent)
package postgresengine
