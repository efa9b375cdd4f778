package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
)

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	meta, err := RetryWithExponentialBackoff(t.Context(), fn)

	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetryOnConcurrencyConflict(t *testing.T) {
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return eventstore.ErrConcurrencyConflict
		}
		return nil
	}

	meta, err := RetryWithExponentialBackoff(t.Context(), fn, WithBaseDelay(time.Millisecond))

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_NoRetryOnOtherErrors(t *testing.T) {
	callCount := 0
	businessErr := errors.New("book is already borrowed")

	fn := func(_ context.Context) error {
		callCount++
		return businessErr
	}

	meta, err := RetryWithExponentialBackoff(t.Context(), fn)

	assert.ErrorIs(t, err, businessErr)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "other", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_Exhausted(t *testing.T) {
	callCount := 0
	metricsCollector := &countingCollector{}

	fn := func(_ context.Context) error {
		callCount++
		return eventstore.ErrConcurrencyConflict
	}

	meta, err := RetryWithExponentialBackoff(t.Context(), fn,
		WithMaxAttempts(3),
		WithBaseDelay(time.Millisecond),
		WithJitterFactor(0),
		WithMetrics(metricsCollector, "BorrowBook"),
	)

	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	assert.Equal(t, 3, callCount)
	assert.True(t, meta.RetriesExhausted)
	assert.Equal(t, "concurrency_conflict", meta.LastErrorType)
	assert.Equal(t, 2, metricsCollector.counters[CommandHandlerRetriesMetric])
	assert.Equal(t, 1, metricsCollector.counters[CommandHandlerMaxRetriesReachedMetric])
}

func Test_RetryWithExponentialBackoff_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())

	fn := func(_ context.Context) error {
		cancel()
		return eventstore.ErrConcurrencyConflict
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(time.Second))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, "context_canceled", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	fn := func(_ context.Context) error { return nil }

	_, err := RetryWithExponentialBackoff(t.Context(), fn, WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = RetryWithExponentialBackoff(t.Context(), fn, WithBaseDelay(-1*time.Second))
	assert.ErrorIs(t, err, ErrNegativeBaseDelay)

	_, err = RetryWithExponentialBackoff(t.Context(), fn, WithJitterFactor(1.5))
	assert.ErrorIs(t, err, ErrInvalidJitterFactor)

	_, err = RetryWithExponentialBackoff(t.Context(), fn, WithMetrics(nil, "BorrowBook"))
	assert.ErrorIs(t, err, ErrNilMetricsCollector)

	_, err = RetryWithExponentialBackoff(t.Context(), fn, WithMetrics(&countingCollector{}, ""))
	assert.ErrorIs(t, err, ErrEmptyCommandType)
}

type countingCollector struct {
	counters map[string]int
}

func (c *countingCollector) RecordDuration(string, time.Duration, map[string]string) {}

func (c *countingCollector) IncrementCounter(metric string, _ map[string]string) {
	if c.counters == nil {
		c.counters = make(map[string]int)
	}

	c.counters[metric]++
}

func (c *countingCollector) RecordValue(string, float64, map[string]string) {}
