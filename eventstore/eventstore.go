package eventstore

import (
	"context"
)

// EventStore is implemented by every engine.
//
// Query returns the events selected by the filter in sequence order, together with the highest
// sequence number among them (0 if there are none).
//
// Append stores the events atomically, but only if the filtered stream's highest sequence number
// still equals expectedMaxSequenceNumber. Otherwise it returns ErrConcurrencyConflict and stores nothing.
type EventStore interface {
	Query(ctx context.Context, filter Filter) (StorableEvents, MaxSequenceNumberUint, error)
	Append(
		ctx context.Context,
		filter Filter,
		expectedMaxSequenceNumber MaxSequenceNumberUint,
		event StorableEvent,
		additionalEvents ...StorableEvent,
	) error
}
