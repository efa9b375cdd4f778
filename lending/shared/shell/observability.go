package shell

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
)

const (
	// CommandHandlerDurationMetric tracks command handler execution duration.
	CommandHandlerDurationMetric = "commandhandler_handle_duration_seconds"

	// CommandHandlerCallsMetric tracks total command handler calls.
	CommandHandlerCallsMetric = "commandhandler_handle_calls_total"

	// CommandHandlerIdempotentMetric tracks idempotent operations.
	CommandHandlerIdempotentMetric = "commandhandler_idempotent_operations_total"

	// QueryHandlerDurationMetric tracks query handler execution duration.
	QueryHandlerDurationMetric = "queryhandler_handle_duration_seconds"

	// QueryHandlerCallsMetric tracks total query handler calls.
	QueryHandlerCallsMetric = "queryhandler_handle_calls_total"

	// CommandHandlerRetriesMetric tracks retry attempts in command handlers.
	//
	// Labels:
	//   - command_type: Type of command being retried (e.g., "BorrowBook")
	//   - attempt_number: Which retry attempt (1, 2, 3, 4, 5)
	//   - error_type: Category of error causing retry (e.g., "concurrency_conflict")
	CommandHandlerRetriesMetric = "commandhandler_retries_total"

	// CommandHandlerRetryDelayMetric tracks retry delays in command handlers.
	CommandHandlerRetryDelayMetric = "commandhandler_retry_delay_seconds"

	// CommandHandlerMaxRetriesReachedMetric tracks when max retries are exhausted.
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"

	// StatusSuccess indicates successful command completion.
	StatusSuccess = "success"

	// StatusError indicates a technical processing error.
	StatusError = "error"

	// StatusRejected indicates that a business rule rejected the command.
	StatusRejected = "rejected"

	// StatusIdempotent indicates no state change was needed.
	StatusIdempotent = "idempotent"

	// StatusCanceled indicates the operation was canceled due to context cancellation.
	StatusCanceled = "canceled"

	// StatusTimeout indicates the operation timed out due to context deadline exceeded.
	StatusTimeout = "timeout"

	// StatusConcurrencyConflict indicates the operation failed due to optimistic concurrency control.
	StatusConcurrencyConflict = "concurrency_conflict"

	LogMsgCommandStarted   = "command handler started"
	LogMsgCommandCompleted = "command handler completed"
	LogMsgCommandRejected  = "command handler rejected"
	LogMsgCommandFailed    = "command handler failed"
	LogMsgQueryCompleted   = "query handler completed"
	LogMsgQueryFailed      = "query handler failed"

	LogAttrCommandType     = "command_type"
	LogAttrQueryType       = "query_type"
	LogAttrStatus          = "status"
	LogAttrBusinessOutcome = "business_outcome"
	LogAttrDurationMS      = "duration_ms"
	LogAttrError           = "error"
	LogAttrErrorType       = "error_type"
	LogAttrAttempts        = "attempts"
	LogAttrBookID          = "book_id"
	LogAttrCorrelationID   = "correlation_id"
)

// MetricsCollector interface for metrics collection in command and query handlers.
type MetricsCollector = eventstore.MetricsCollector

// Logger interface for logging in command and query handlers.
type Logger = eventstore.Logger

// BuildCommandLabels creates standard metric labels for command handler operations.
func BuildCommandLabels(commandType, status string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		LogAttrStatus:      status,
	}
}

// BuildRetryLabels creates metric labels for retry attempts.
func BuildRetryLabels(commandType string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		"attempt_number":   strconv.Itoa(attemptNumber),
		LogAttrErrorType:   errorType,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// StatusOf classifies the outcome of a handler call for metrics and logs.
func StatusOf(result HandlerResult, err error) string {
	switch {
	case err == nil && result.Idempotent:
		return StatusIdempotent
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, eventstore.ErrConcurrencyConflict), errors.Is(err, core.ErrConcurrentChange):
		return StatusConcurrencyConflict
	case errors.Is(err, core.ErrInvalidArgument), errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrConflict),
		errors.Is(err, core.ErrUnauthorized):
		return StatusRejected
	default:
		return StatusError
	}
}

// Observer records metrics and logs for command and query handlers. A zero Observer does nothing.
type Observer struct {
	logger  Logger
	metrics MetricsCollector
}

// NewObserver creates an Observer. Both arguments may be nil.
func NewObserver(logger Logger, metrics MetricsCollector) Observer {
	return Observer{logger: logger, metrics: metrics}
}

// Logger returns the logger, which may be nil.
func (o Observer) Logger() Logger {
	return o.logger
}

// Metrics returns the metrics collector, which may be nil.
func (o Observer) Metrics() MetricsCollector {
	return o.metrics
}

// CommandStarted logs the start of a command and returns the start time.
func (o Observer) CommandStarted(ctx context.Context, commandType string) time.Time {
	if o.logger != nil {
		o.logger.Debug(LogMsgCommandStarted, LogAttrCommandType, commandType, LogAttrCorrelationID, CorrelationIDFrom(ctx))
	}

	return time.Now()
}

// CommandFinished records the outcome of a command.
// Business rejections are logged at info level, technical failures at error level.
func (o Observer) CommandFinished(
	ctx context.Context,
	commandType string,
	start time.Time,
	result HandlerResult,
	err error,
) {

	duration := time.Since(start)
	status := StatusOf(result, err)

	if o.metrics != nil {
		labels := BuildCommandLabels(commandType, status)
		o.metrics.RecordDuration(CommandHandlerDurationMetric, duration, labels)
		o.metrics.IncrementCounter(CommandHandlerCallsMetric, labels)

		if status == StatusIdempotent {
			o.metrics.IncrementCounter(CommandHandlerIdempotentMetric, labels)
		}
	}

	if o.logger == nil {
		return
	}

	args := []any{
		LogAttrCommandType, commandType,
		LogAttrBusinessOutcome, status,
		LogAttrDurationMS, ToMilliseconds(duration),
		LogAttrAttempts, result.RetryAttempts,
		LogAttrCorrelationID, CorrelationIDFrom(ctx),
	}

	switch status {
	case StatusSuccess, StatusIdempotent:
		o.logger.Info(LogMsgCommandCompleted, args...)
	case StatusRejected, StatusConcurrencyConflict:
		o.logger.Info(LogMsgCommandRejected, append(args, LogAttrError, err.Error())...)
	default:
		o.logger.Error(LogMsgCommandFailed, append(args, LogAttrError, err.Error())...)
	}
}

// QueryFinished records the outcome of a query.
func (o Observer) QueryFinished(ctx context.Context, queryType string, start time.Time, err error) {
	duration := time.Since(start)
	status := StatusOf(HandlerResult{}, err)

	if o.metrics != nil {
		labels := map[string]string{LogAttrQueryType: queryType, LogAttrStatus: status}
		o.metrics.RecordDuration(QueryHandlerDurationMetric, duration, labels)
		o.metrics.IncrementCounter(QueryHandlerCallsMetric, labels)
	}

	if o.logger == nil {
		return
	}

	if err != nil && status != StatusRejected {
		o.logger.Error(LogMsgQueryFailed, LogAttrQueryType, queryType, LogAttrError, err.Error(), LogAttrCorrelationID, CorrelationIDFrom(ctx))
		return
	}

	o.logger.Debug(LogMsgQueryCompleted, LogAttrQueryType, queryType, LogAttrDurationMS, ToMilliseconds(duration))
}
