package adapters

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const sqlStateSerializationFailure = "40001"

// IsSerializationFailure reports whether err is a PostgreSQL serialization failure,
// raised by either the pgx or the lib/pq driver.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateSerializationFailure
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == sqlStateSerializationFailure
	}

	return false
}
