package eventstore

import (
	"errors"
)

var (
	// ErrEmptyEventsTableName is returned when an empty table name is supplied.
	ErrEmptyEventsTableName = errors.New("events table name must not be empty")

	// ErrNilDatabaseConnection is returned when a nil database connection is supplied.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrConcurrencyConflict is returned when the filtered event stream changed between Query and Append.
	ErrConcurrencyConflict = errors.New("concurrency error, no rows were affected")

	// ErrBuildingQueryFailed is returned when a query can't be built from a Filter.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrQueryingEventsFailed is returned when the database query fails.
	ErrQueryingEventsFailed = errors.New("querying events failed")

	// ErrScanningDBRowFailed is returned when a result row can't be scanned.
	ErrScanningDBRowFailed = errors.New("scanning db row failed")

	// ErrBuildingStorableEventFailed is returned when a stored row is not a valid StorableEvent.
	ErrBuildingStorableEventFailed = errors.New("building storable event failed")

	// ErrAppendingEventFailed is returned when the database insert fails.
	ErrAppendingEventFailed = errors.New("appending event failed")

	// ErrGettingRowsAffectedFailed is returned when the driver can't report affected rows.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")

	// ErrCreatingSchemaFailed is returned when the events table or its indexes can't be created.
	ErrCreatingSchemaFailed = errors.New("creating schema failed")
)

// MaxSequenceNumberUint is a type alias for uint, representing the maximum sequence number for a "dynamic event stream".
type MaxSequenceNumberUint = uint
