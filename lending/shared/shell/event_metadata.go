package shell

import (
	"context"
	"errors"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
)

// ErrMappingToEventMetadataFailed is returned when metadata conversion fails.
var ErrMappingToEventMetadataFailed = errors.New("mapping to event metadata failed")

// MessageID represents a unique message identifier.
type MessageID = string

// CausationID represents the ID of the message that caused this event.
type CausationID = string

// CorrelationID represents the ID correlating related events, e.g. one HTTP request.
type CorrelationID = string

// EventMetadata contains event tracking information.
type EventMetadata struct {
	MessageID     MessageID
	CausationID   CausationID
	CorrelationID CorrelationID
}

// BuildEventMetadata creates EventMetadata from UUID values.
func BuildEventMetadata(messageID uuid.UUID, causationID uuid.UUID, correlationID uuid.UUID) EventMetadata {
	return EventMetadata{
		MessageID:     messageID.String(),
		CausationID:   causationID.String(),
		CorrelationID: correlationID.String(),
	}
}

// NewEventMetadata creates metadata for an event caused by a command. The correlation ID comes from
// the context (see WithCorrelationID) and falls back to the message ID.
func NewEventMetadata(ctx context.Context) EventMetadata {
	messageID := NewID()
	correlationID := CorrelationIDFrom(ctx)

	if correlationID == "" {
		correlationID = messageID.String()
	}

	return EventMetadata{
		MessageID:     messageID.String(),
		CausationID:   correlationID,
		CorrelationID: correlationID,
	}
}

// EventMetadataFrom extracts EventMetadata from a StorableEvent.
func EventMetadataFrom(storableEvent eventstore.StorableEvent) (EventMetadata, error) {
	metadata := new(EventMetadata)
	err := jsoniter.ConfigFastest.Unmarshal(storableEvent.MetadataJSON, metadata)
	if err != nil {
		return EventMetadata{}, errors.Join(ErrMappingToEventMetadataFailed, err)
	}

	return *metadata, nil
}

type correlationKey struct{}

// WithCorrelationID returns a context carrying the correlation ID, usually the request ID.
func WithCorrelationID(ctx context.Context, correlationID CorrelationID) context.Context {
	return context.WithValue(ctx, correlationKey{}, correlationID)
}

// CorrelationIDFrom returns the correlation ID of the context or "".
func CorrelationIDFrom(ctx context.Context) CorrelationID {
	if correlationID, ok := ctx.Value(correlationKey{}).(CorrelationID); ok {
		return correlationID
	}

	return ""
}

// NewID returns a time-ordered UUIDv7, falling back to a random UUIDv4.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}

	return id
}
