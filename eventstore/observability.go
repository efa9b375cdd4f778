package eventstore

import (
	"time"
)

// Logger is the logging contract of the event store engines. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsCollector collects EventStore performance and operational metrics.
// Labels are low-cardinality: operation, status, error type.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// Metric names shared by all engines.
const (
	MetricQueryDuration        = "eventstore_query_duration_seconds"
	MetricAppendDuration       = "eventstore_append_duration_seconds"
	MetricEventsQueried        = "eventstore_events_queried_total"
	MetricEventsAppended       = "eventstore_events_appended_total"
	MetricConcurrencyConflicts = "eventstore_concurrency_conflicts_total"
	MetricDatabaseErrors       = "eventstore_database_errors_total"
)

// Metric label keys and values.
const (
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorType = "error_type"

	OperationQuery  = "query"
	OperationAppend = "append"

	StatusSuccess = "success"
	StatusError   = "error"
)
