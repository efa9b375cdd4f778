package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/eventstore/postgresengine/internal/adapters"
)

const (
	defaultEventTableName          = "events"
	logMsgBuildSelectQueryFailed   = "failed to build select query"
	logMsgDBQueryFailed            = "database query execution failed"
	logMsgCloseRowsFailed          = "failed to close database rows"
	logMsgScanRowFailed            = "failed to scan database row"
	logMsgBuildStorableEventFailed = "failed to build storable event from database row"
	logMsgBuildInsertQueryFailed   = "failed to build insert query"
	logMsgDBExecFailed             = "database execution failed during event append"
	logMsgRowsAffectedFailed       = "failed to get rows affected count"
	logMsgQueryCompleted           = "query completed"
	logMsgEventsAppended           = "events appended"
	logMsgConcurrencyConflict      = "concurrency conflict detected"
	logMsgSchemaCreated            = "schema created"
	logMsgSQLExecuted              = "executed sql for: "
	logMsgOperation                = "eventstore operation: "
	logAttrError                   = "error"
	logAttrQuery                   = "query"
	logAttrTable                   = "table"
	logAttrEventType               = "event_type"
	logAttrEventCount              = "event_count"
	logAttrDurationMS              = "duration_ms"
	logAttrExpectedEvents          = "expected_events"
	logAttrRowsAffected            = "rows_affected"
	logAttrExpectedSequence        = "expected_sequence"
	logAttrConsistency             = "consistency"
	logActionQuery                 = "query"
	logActionAppend                = "append"
	colEventType                   = "event_type"
	colOccurredAt                  = "occurred_at"
	colPayload                     = "payload"
	colMetadata                    = "metadata"
	colSequenceNumber              = "sequence_number"
	cteContext                     = "context"
	cteVals                        = "vals"
	dialectPostgres                = "postgres"
	aliasMaxSeq                    = "max_seq"
	castText                       = "?::text"
	castTimestamp                  = "?::timestamp with time zone"
	castJsonb                      = "?::jsonb"
	payloadContains                = "payload @> ?::jsonb"
	errorTypeBuildQuery            = "build_query"
	errorTypeDatabase              = "database"
	errorTypeScan                  = "scan"
	errorTypeConflict              = "concurrency_conflict"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
	queryDuration     = time.Duration
)

// EventStore is the PostgreSQL engine of eventstore.EventStore.
type EventStore struct {
	db               adapters.DBAdapter
	eventTableName   string
	logger           eventstore.Logger
	metricsCollector eventstore.MetricsCollector
}

var _ eventstore.EventStore = EventStore{}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromPGXPoolWithReplica creates a new EventStore which serves eventually consistent reads
// from the replica pool. Appends and strongly consistent reads always hit the primary.
func NewEventStoreFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil || replica == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLDBWithReplica creates a new EventStore on sql.DB with a replica for eventually consistent reads.
func NewEventStoreFromSQLDBWithReplica(db *sql.DB, replica *sql.DB, options ...Option) (EventStore, error) {
	if db == nil || replica == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapterWithReplica(db, replica), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

// NewEventStoreFromSQLXWithReplica creates a new EventStore on sqlx.DB with a replica for eventually consistent reads.
func NewEventStoreFromSQLXWithReplica(db *sqlx.DB, replica *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil || replica == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapterWithReplica(db, replica), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (EventStore, error) {
	es := EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// Query retrieves events from the Postgres event store based on the provided eventstore.Filter criteria
// and returns them as eventstore.StorableEvents
// as well as the MaxSequenceNumberUint for this "dynamic event stream" at the time of the query.
func (es EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	var empty eventstore.StorableEvents

	sqlQuery, buildQueryErr := es.buildSelectQuery(filter)
	if buildQueryErr != nil {
		es.logError(logMsgBuildSelectQueryFailed, buildQueryErr)
		es.recordError(eventstore.OperationQuery, errorTypeBuildQuery)

		return empty, 0, buildQueryErr
	}

	rows, duration, queryErr := es.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		es.recordDuration(eventstore.MetricQueryDuration, duration, eventstore.OperationQuery, eventstore.StatusError)
		es.recordError(eventstore.OperationQuery, errorTypeDatabase)

		return empty, 0, queryErr
	}
	defer es.closeRows(rows)

	eventStream, maxSequenceNumber, scanErr := es.processQueryResults(rows)
	if scanErr != nil {
		es.recordError(eventstore.OperationQuery, errorTypeScan)

		return empty, 0, scanErr
	}

	es.recordDuration(eventstore.MetricQueryDuration, duration, eventstore.OperationQuery, eventstore.StatusSuccess)
	es.recordValue(eventstore.MetricEventsQueried, float64(len(eventStream)), eventstore.OperationQuery)
	es.logOperation(
		logMsgQueryCompleted,
		logAttrEventCount, len(eventStream),
		logAttrDurationMS, es.toMilliseconds(duration),
		logAttrConsistency, eventstore.GetConsistencyLevel(ctx).String(),
	)

	return eventStream, maxSequenceNumber, nil
}

// executeQuery executes the SQL query and returns rows with timing information.
func (es EventStore) executeQuery(ctx context.Context, sqlQuery string) (
	adapters.DBRows,
	time.Duration,
	error,
) {

	start := time.Now()
	rows, queryErr := es.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	es.logQueryWithDuration(sqlQuery, logActionQuery, duration)

	if queryErr != nil {
		es.logError(logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)

		return nil, duration, errors.Join(eventstore.ErrQueryingEventsFailed, queryErr)
	}

	return rows, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (es EventStore) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if es.logger != nil {
			es.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// processQueryResults processes database rows and converts them to storable events.
func (es EventStore) processQueryResults(rows adapters.DBRows) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	var empty eventstore.StorableEvents
	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for rows.Next() {
		var (
			eventType      string
			occurredAt     time.Time
			payload        []byte
			metadata       []byte
			sequenceNumber int64
		)

		if rowScanErr := rows.Scan(&eventType, &occurredAt, &payload, &metadata, &sequenceNumber); rowScanErr != nil {
			es.logError(logMsgScanRowFailed, rowScanErr)

			return empty, 0, errors.Join(eventstore.ErrScanningDBRowFailed, rowScanErr)
		}

		event, buildStorableErr := eventstore.RestoreStorableEvent(
			eventType,
			occurredAt,
			payload,
			metadata,
			eventstore.MaxSequenceNumberUint(sequenceNumber),
		)
		if buildStorableErr != nil {
			es.logError(logMsgBuildStorableEventFailed, buildStorableErr, logAttrEventType, eventType)

			return empty, 0, errors.Join(eventstore.ErrBuildingStorableEventFailed, buildStorableErr)
		}

		eventStream = append(eventStream, event)
		maxSequenceNumber = event.SequenceNumber
	}

	if iterErr := rows.Err(); iterErr != nil {
		es.logError(logMsgScanRowFailed, iterErr)

		return empty, 0, errors.Join(eventstore.ErrScanningDBRowFailed, iterErr)
	}

	return eventStream, maxSequenceNumber, nil
}

// Append attempts to append one or multiple eventstore.StorableEvent(s) onto the Postgres event store respecting concurrency constraints
// for this "dynamic event stream" based on the provided eventstore.Filter criteria and the expected MaxSequenceNumberUint.
//
// The provided eventstore.Filter criteria should be the same as the ones used for the Query before making the business decisions.
//
// The insert query to append multiple events atomically is heavier than the one built to append a single event.
// One command should typically only produce one event.
func (es EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	allEvents := eventstore.StorableEvents{event}
	allEvents = append(allEvents, additionalEvents...)

	sqlQuery, buildQueryErr := es.buildAppendQuery(allEvents, filter, expectedMaxSequenceNumber)
	if buildQueryErr != nil {
		es.recordError(eventstore.OperationAppend, errorTypeBuildQuery)

		return buildQueryErr
	}

	rowsAffected, duration, execErr := es.executeAppendQuery(ctx, sqlQuery)
	if execErr != nil {
		if adapters.IsSerializationFailure(execErr) {
			return es.concurrencyConflict(duration, len(allEvents), 0, expectedMaxSequenceNumber)
		}

		es.recordDuration(eventstore.MetricAppendDuration, duration, eventstore.OperationAppend, eventstore.StatusError)
		es.recordError(eventstore.OperationAppend, errorTypeDatabase)

		return execErr
	}

	if rowsAffected < int64(len(allEvents)) {
		return es.concurrencyConflict(duration, len(allEvents), rowsAffected, expectedMaxSequenceNumber)
	}

	es.recordDuration(eventstore.MetricAppendDuration, duration, eventstore.OperationAppend, eventstore.StatusSuccess)
	es.recordValue(eventstore.MetricEventsAppended, float64(len(allEvents)), eventstore.OperationAppend)
	es.logOperation(
		logMsgEventsAppended,
		logAttrEventCount, len(allEvents),
		logAttrDurationMS, es.toMilliseconds(duration),
	)

	return nil
}

func (es EventStore) concurrencyConflict(
	duration queryDuration,
	expectedEventCount int,
	rowsAffected rowsAffectedInt64,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) error {

	es.logOperation(
		logMsgConcurrencyConflict,
		logAttrExpectedEvents, expectedEventCount,
		logAttrRowsAffected, rowsAffected,
		logAttrExpectedSequence, expectedMaxSequenceNumber,
	)
	es.recordDuration(eventstore.MetricAppendDuration, duration, eventstore.OperationAppend, eventstore.StatusError)

	if es.metricsCollector != nil {
		es.metricsCollector.IncrementCounter(eventstore.MetricConcurrencyConflicts, map[string]string{
			eventstore.LabelOperation: eventstore.OperationAppend,
			eventstore.LabelErrorType: errorTypeConflict,
		})
	}

	return eventstore.ErrConcurrencyConflict
}

// buildAppendQuery builds the appropriate SQL query for single or multiple events.
func (es EventStore) buildAppendQuery(
	allEvents eventstore.StorableEvents,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlQueryString, error) {

	var sqlQuery sqlQueryString
	var buildQueryErr error

	switch len(allEvents) {
	case 1:
		sqlQuery, buildQueryErr = es.buildInsertQueryForSingleEvent(allEvents[0], filter, expectedMaxSequenceNumber)

	default:
		sqlQuery, buildQueryErr = es.buildInsertQueryForMultipleEvents(allEvents, filter, expectedMaxSequenceNumber)
	}

	if buildQueryErr != nil {
		es.logError(logMsgBuildInsertQueryFailed, buildQueryErr, logAttrEventCount, len(allEvents))

		return "", buildQueryErr
	}

	return sqlQuery, nil
}

// executeAppendQuery executes the SQL append query and returns rows affected and duration.
func (es EventStore) executeAppendQuery(ctx context.Context, sqlQuery string) (
	rowsAffectedInt64,
	queryDuration,
	error,
) {

	start := time.Now()
	tag, execErr := es.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	es.logQueryWithDuration(sqlQuery, logActionAppend, duration)

	if execErr != nil {
		if adapters.IsSerializationFailure(execErr) {
			return 0, duration, execErr
		}

		es.logError(logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)

		return 0, duration, errors.Join(eventstore.ErrAppendingEventFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := tag.RowsAffected()
	if rowsAffectedErr != nil {
		es.logError(logMsgRowsAffectedFailed, rowsAffectedErr)

		return 0, duration, errors.Join(eventstore.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

func (es EventStore) buildSelectQuery(filter eventstore.Filter) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(colEventType, colOccurredAt, colPayload, colMetadata, colSequenceNumber).
		Order(goqu.I(colSequenceNumber).Asc())

	selectStmt, whereErr := es.addWhereClause(filter, selectStmt)
	if whereErr != nil {
		return "", whereErr
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (es EventStore) maxSequenceCTE(builder goqu.DialectWrapper, filter eventstore.Filter) (*goqu.SelectDataset, error) {
	cteStmt := builder.
		From(es.eventTableName).
		Select(goqu.MAX(colSequenceNumber).As(aliasMaxSeq))

	return es.addWhereClause(filter, cteStmt)
}

func (es EventStore) buildInsertQueryForSingleEvent(
	event eventstore.StorableEvent,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	cteStmt, whereErr := es.maxSequenceCTE(builder, filter)
	if whereErr != nil {
		return "", whereErr
	}

	selectStmt := builder.
		From(cteContext).
		Select(
			goqu.L(castText, event.EventType),
			goqu.L(castTimestamp, event.OccurredAt),
			goqu.L(castJsonb, string(event.PayloadJSON)),
			goqu.L(castJsonb, string(event.MetadataJSON)),
		).
		Where(goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(goqu.V(expectedMaxSequenceNumber)))

	insertStmt := builder.
		Insert(es.eventTableName).
		Cols(colEventType, colOccurredAt, colPayload, colMetadata).
		FromQuery(selectStmt).
		With(cteContext, cteStmt)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (es EventStore) buildInsertQueryForMultipleEvents(
	events []eventstore.StorableEvent,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	cteStmt, whereErr := es.maxSequenceCTE(builder, filter)
	if whereErr != nil {
		return "", whereErr
	}

	var valuesStmt *goqu.SelectDataset

	for _, event := range events {
		eventStmt := builder.
			Select(
				goqu.L(castText, event.EventType).As(colEventType),
				goqu.L(castTimestamp, event.OccurredAt).As(colOccurredAt),
				goqu.L(castJsonb, string(event.PayloadJSON)).As(colPayload),
				goqu.L(castJsonb, string(event.MetadataJSON)).As(colMetadata),
			)

		if valuesStmt == nil {
			valuesStmt = eventStmt
			continue
		}

		valuesStmt = valuesStmt.UnionAll(eventStmt)
	}

	valsCol := func(col string) string {
		return fmt.Sprintf("%s.%s", cteVals, col)
	}

	insertStmt := builder.
		Insert(es.eventTableName).
		Cols(colEventType, colOccurredAt, colPayload, colMetadata).
		With(cteContext, cteStmt).
		With(cteVals, valuesStmt).
		FromQuery(
			builder.From(cteContext, cteVals).
				Select(valsCol(colEventType), valsCol(colOccurredAt), valsCol(colPayload), valsCol(colMetadata)).
				Where(goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(goqu.V(expectedMaxSequenceNumber))),
		)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// addWhereClause translates the Filter. Predicates become JSONB containment checks, so the values
// are marshaled and bound as literals instead of being spliced into the SQL text.
func (es EventStore) addWhereClause(filter eventstore.Filter, selectStmt *goqu.SelectDataset) (*goqu.SelectDataset, error) {
	itemsExpressions := make([]goqu.Expression, 0, len(filter.Items()))

	for _, item := range filter.Items() {
		eventTypeExpressions := make([]goqu.Expression, 0, len(item.EventTypes()))
		predicateExpressions := make([]goqu.Expression, 0, len(item.Predicates()))

		for _, eventType := range item.EventTypes() {
			eventTypeExpressions = append(eventTypeExpressions, goqu.Ex{colEventType: eventType})
		}

		for _, predicate := range item.Predicates() {
			containment, marshalErr := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(
				map[string]string{predicate.Key(): predicate.Val()},
			)
			if marshalErr != nil {
				return nil, errors.Join(eventstore.ErrBuildingQueryFailed, marshalErr)
			}

			predicateExpressions = append(predicateExpressions, goqu.L(payloadContains, string(containment)))
		}

		var predicatesExpressionList exp.ExpressionList

		if item.AllPredicatesMustMatch() {
			predicatesExpressionList = goqu.And(predicateExpressions...)
		} else {
			predicatesExpressionList = goqu.Or(predicateExpressions...)
		}

		itemsExpressions = append(
			itemsExpressions,
			goqu.And(goqu.Or(eventTypeExpressions...), predicatesExpressionList),
		)
	}

	occurredAtExpressions := make([]goqu.Expression, 0, 2)

	if !filter.OccurredFrom().IsZero() {
		occurredAtExpressions = append(occurredAtExpressions, goqu.C(colOccurredAt).Gte(filter.OccurredFrom()))
	}

	if !filter.OccurredUntil().IsZero() {
		occurredAtExpressions = append(occurredAtExpressions, goqu.C(colOccurredAt).Lte(filter.OccurredUntil()))
	}

	return selectStmt.Where(
		goqu.And(
			goqu.Or(itemsExpressions...),
			goqu.And(occurredAtExpressions...),
		),
	), nil
}

// logQueryWithDuration logs SQL queries with execution time at debug level if the logger is configured.
func (es EventStore) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if es.logger != nil {
		es.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, es.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if the logger is configured.
func (es EventStore) logOperation(action string, args ...any) {
	if es.logger != nil {
		es.logger.Info(logMsgOperation+action, args...)
	}
}

func (es EventStore) logError(message string, err error, args ...any) {
	if es.logger != nil {
		es.logger.Error(message, append([]any{logAttrError, err.Error()}, args...)...)
	}
}

func (es EventStore) recordDuration(metric string, duration time.Duration, operation, status string) {
	if es.metricsCollector != nil {
		es.metricsCollector.RecordDuration(metric, duration, map[string]string{
			eventstore.LabelOperation: operation,
			eventstore.LabelStatus:    status,
		})
	}
}

func (es EventStore) recordValue(metric string, value float64, operation string) {
	if es.metricsCollector != nil {
		es.metricsCollector.RecordValue(metric, value, map[string]string{
			eventstore.LabelOperation: operation,
			eventstore.LabelStatus:    eventstore.StatusSuccess,
		})
	}
}

func (es EventStore) recordError(operation, errorType string) {
	if es.metricsCollector != nil {
		es.metricsCollector.IncrementCounter(eventstore.MetricDatabaseErrors, map[string]string{
			eventstore.LabelOperation: operation,
			eventstore.LabelStatus:    eventstore.StatusError,
			eventstore.LabelErrorType: errorType,
		})
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (es EventStore) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
