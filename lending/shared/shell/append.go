package shell

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
)

// EventStore is the event store contract used by the lending features.
type EventStore = eventstore.EventStore

// AppendDecidedEvent stores the event of a successful decision, conditional on the filtered
// stream still being at expectedMaxSequenceNumber. It returns the envelope for publishing.
func AppendDecidedEvent(
	ctx context.Context,
	store EventStore,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event core.DomainEvent,
) (EventEnvelope, error) {

	metadata := NewEventMetadata(ctx)

	storableEvent, err := StorableEventFrom(event, metadata)
	if err != nil {
		return EventEnvelope{}, err
	}

	if err = store.Append(ctx, filter, expectedMaxSequenceNumber, storableEvent); err != nil {
		return EventEnvelope{}, err
	}

	return EventEnvelope{DomainEvent: event, EventMetadata: metadata}, nil
}

// QueryDomainEvents reads the filtered stream with the consistency level of ctx and maps it to domain events.
func QueryDomainEvents(
	ctx context.Context,
	store EventStore,
	filter eventstore.Filter,
) (core.DomainEvents, eventstore.MaxSequenceNumberUint, error) {

	storableEvents, maxSequenceNumber, err := store.Query(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	history, err := DomainEventsFrom(storableEvents)
	if err != nil {
		return nil, 0, err
	}

	return history, maxSequenceNumber, nil
}
