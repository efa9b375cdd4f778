package shell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

func Test_ExecuteCommand_RunsWithStrongConsistency(t *testing.T) {
	// arrange
	ctx := eventstore.WithEventualConsistency(context.Background())
	var seen eventstore.ConsistencyLevel

	// act
	err := shell.ExecuteCommand(ctx, shell.Observer{}, "AddBook", nil, func(ctx context.Context) (bool, error) {
		seen = eventstore.GetConsistencyLevel(ctx)
		return false, nil
	})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, eventstore.StrongConsistency, seen)
}

func Test_ExecuteCommand_MapsExhaustedRetriesToConcurrentChange(t *testing.T) {
	// arrange
	attempts := 0
	retryOptions := []shell.RetryOption{shell.WithMaxAttempts(3), shell.WithBaseDelay(time.Millisecond)}

	// act
	err := shell.ExecuteCommand(context.Background(), shell.Observer{}, "BorrowBook", retryOptions, func(context.Context) (bool, error) {
		attempts++
		return false, eventstore.ErrConcurrencyConflict
	})

	// assert
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, core.ErrConcurrentChange)
	assert.ErrorIs(t, err, core.ErrConflict)
}

func Test_ExecuteCommand_DoesNotRetryRejections(t *testing.T) {
	// arrange
	attempts := 0

	// act
	err := shell.ExecuteCommand(context.Background(), shell.Observer{}, "BorrowBook", nil, func(context.Context) (bool, error) {
		attempts++
		return false, core.ErrAlreadyBorrowed
	})

	// assert
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, core.ErrAlreadyBorrowed)
}

func Test_ExecuteCommand_ReturnsTechnicalErrorsUnchanged(t *testing.T) {
	// arrange
	dbErr := errors.New("connection refused")

	// act
	err := shell.ExecuteCommand(context.Background(), shell.Observer{}, "RemoveBook", nil, func(context.Context) (bool, error) {
		return false, dbErr
	})

	// assert
	assert.ErrorIs(t, err, dbErr)
}
