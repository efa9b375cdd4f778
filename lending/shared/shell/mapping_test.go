package shell_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

func Test_EventEnvelopeFrom_KeepsMetadataAndSequenceNumber(t *testing.T) {
	// arrange
	ctx := shell.WithCorrelationID(t.Context(), "request-1")
	book := core.BookState{BookID: uuid.NewString(), Title: "Dune", Author: "Herbert"}
	event := core.BuildBookBorrowed(uuid.NewString(), book, uuid.NewString(), time.Now())
	metadata := shell.NewEventMetadata(ctx)

	storableEvent, err := shell.StorableEventFrom(event, metadata)
	require.NoError(t, err)
	restored, err := eventstore.RestoreStorableEvent(
		storableEvent.EventType,
		storableEvent.OccurredAt,
		storableEvent.PayloadJSON,
		storableEvent.MetadataJSON,
		42,
	)
	require.NoError(t, err)

	// act
	envelope, err := shell.EventEnvelopeFrom(restored)

	// assert
	require.NoError(t, err)
	assert.Equal(t, event, envelope.DomainEvent)
	assert.Equal(t, "request-1", envelope.EventMetadata.CorrelationID)
	assert.NotEmpty(t, envelope.EventMetadata.MessageID)
	assert.Equal(t, uint(42), envelope.SequenceNumber)
}

func Test_DomainEventFrom_UnknownEventType(t *testing.T) {
	storableEvent, err := eventstore.BuildStorableEventWithEmptyMetadata("SomethingElse", time.Now(), []byte(`{}`))
	require.NoError(t, err)

	_, err = shell.DomainEventFrom(storableEvent)

	assert.ErrorIs(t, err, shell.ErrMappingToDomainEventUnknownEventType)
}

func Test_StatusOf(t *testing.T) {
	testCases := []struct {
		description string
		result      shell.HandlerResult
		err         error
		expected    string
	}{
		{description: "success", expected: shell.StatusSuccess},
		{description: "idempotent", result: shell.HandlerResult{Idempotent: true}, expected: shell.StatusIdempotent},
		{description: "business_conflict", err: core.ErrAlreadyBorrowed, expected: shell.StatusRejected},
		{description: "not_found", err: core.ErrBookNotFound, expected: shell.StatusRejected},
		{description: "exhausted_retries", err: core.ErrConcurrentChange, expected: shell.StatusConcurrencyConflict},
		{description: "technical", err: eventstore.ErrQueryingEventsFailed, expected: shell.StatusError},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, shell.StatusOf(tc.result, tc.err))
		})
	}
}
