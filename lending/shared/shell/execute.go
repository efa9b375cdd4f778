package shell

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
)

// CommandFunc runs one read-decide-append attempt of a command. It reports whether the command
// needed no state change.
type CommandFunc func(ctx context.Context) (idempotent bool, err error)

// ExecuteCommand runs fn with optimistic-concurrency retries and reports the outcome to the observer.
// Losing every race surfaces as core.ErrConcurrentChange, rejections are returned unchanged.
func ExecuteCommand(
	ctx context.Context,
	observer Observer,
	commandType string,
	retryOptions []RetryOption,
	fn CommandFunc,
) error {

	start := observer.CommandStarted(ctx, commandType)

	if observer.Metrics() != nil {
		retryOptions = append(retryOptions[:len(retryOptions):len(retryOptions)], WithMetrics(observer.Metrics(), commandType))
	}

	var isIdempotent bool
	retryMetrics, err := RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		idempotent, execErr := fn(eventstore.WithStrongConsistency(retryCtx))
		isIdempotent = idempotent

		return execErr
	}, retryOptions...)

	if retryMetrics.RetriesExhausted && errors.Is(err, eventstore.ErrConcurrencyConflict) {
		err = core.ErrConcurrentChange
	}

	observer.CommandFinished(ctx, commandType, start, NewHandlerResult(retryMetrics, isIdempotent && err == nil), err)

	return err
}
