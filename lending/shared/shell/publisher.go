package shell

import (
	"context"
)

// EventPublisher announces committed events to the outside world. Publishing happens after the
// append succeeded; a failed publish is logged and never undoes the state change.
type EventPublisher interface {
	Publish(ctx context.Context, envelope EventEnvelope) error
}

// NoopPublisher is the EventPublisher used when notifications are switched off.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, EventEnvelope) error {
	return nil
}

// PublishCommitted publishes the envelope and logs a failure instead of returning it.
func PublishCommitted(ctx context.Context, publisher EventPublisher, logger Logger, envelope EventEnvelope) {
	if publisher == nil {
		return
	}

	if err := publisher.Publish(ctx, envelope); err != nil && logger != nil {
		logger.Warn(
			"publishing committed event failed",
			LogAttrError, err.Error(),
			LogAttrBookID, envelope.DomainEvent.HasBookID(),
			LogAttrCorrelationID, envelope.EventMetadata.CorrelationID,
		)
	}
}
