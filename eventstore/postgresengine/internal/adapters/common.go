package adapters

import (
	"context"
	"database/sql"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
)

// useReplica reports whether a read may go to the replica.
func useReplica(ctx context.Context, hasReplica bool) bool {
	return hasReplica && eventstore.GetConsistencyLevel(ctx) == eventstore.EventualConsistency
}

// stdRows wraps standard library sql.Rows to implement the DBRows interface.
type stdRows struct {
	rows *sql.Rows
}

func (s *stdRows) Next() bool {
	return s.rows.Next()
}

func (s *stdRows) Scan(dest ...any) error {
	return s.rows.Scan(dest...)
}

func (s *stdRows) Err() error {
	return s.rows.Err()
}

func (s *stdRows) Close() error {
	return s.rows.Close()
}

// stdResult wraps standard library sql.Result to implement the DBResult interface.
type stdResult struct {
	result sql.Result
}

func (s *stdResult) RowsAffected() (int64, error) {
	return s.result.RowsAffected()
}

type sqlTxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// execSerializable runs query in its own serializable transaction.
func execSerializable(ctx context.Context, db sqlTxBeginner, query string) (DBResult, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}
