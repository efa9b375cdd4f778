package notify

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

const (
	routingKeyPrefix  = "lending."
	messageVersion    = "1"
	contentTypeJSON   = "application/json"
	headerEventType   = "event_type"
	headerVersion     = "event_version"
	headerCorrelation = "correlation_id"
	headerBookID      = "book_id"
)

var ErrBuildingMessageFailed = errors.New("building notification message failed")

// Message is the JSON body of a notification.
type Message struct {
	EventID        string           `json:"event_id"`
	EventType      string           `json:"event_type"`
	EventVersion   string           `json:"event_version"`
	OccurredAt     time.Time        `json:"occurred_at"`
	SequenceNumber uint             `json:"sequence,omitempty"`
	CorrelationID  string           `json:"correlation_id,omitempty"`
	CausationID    string           `json:"causation_id,omitempty"`
	Payload        core.DomainEvent `json:"payload"`
}

// RoutingKey is "lending." followed by the event type, e.g. "lending.BookBorrowed".
func RoutingKey(envelope shell.EventEnvelope) string {
	return routingKeyPrefix + envelope.DomainEvent.IsEventType()
}

// BuildPublishing turns an envelope into a persistent AMQP message.
// The message ID is the event's message ID so consumers can deduplicate redeliveries.
func BuildPublishing(envelope shell.EventEnvelope, now time.Time) (amqp.Publishing, error) {
	if envelope.DomainEvent == nil {
		return amqp.Publishing{}, ErrBuildingMessageFailed
	}

	message := Message{
		EventID:        envelope.EventMetadata.MessageID,
		EventType:      envelope.DomainEvent.IsEventType(),
		EventVersion:   messageVersion,
		OccurredAt:     envelope.DomainEvent.HasOccurredAt(),
		SequenceNumber: envelope.SequenceNumber,
		CorrelationID:  envelope.EventMetadata.CorrelationID,
		CausationID:    envelope.EventMetadata.CausationID,
		Payload:        envelope.DomainEvent,
	}

	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(message)
	if err != nil {
		return amqp.Publishing{}, errors.Join(ErrBuildingMessageFailed, err)
	}

	return amqp.Publishing{
		ContentType:   contentTypeJSON,
		DeliveryMode:  amqp.Persistent,
		Timestamp:     now,
		MessageId:     message.EventID,
		CorrelationId: message.CorrelationID,
		Type:          message.EventType,
		Body:          body,
		Headers: amqp.Table{
			headerEventType:   message.EventType,
			headerVersion:     messageVersion,
			headerCorrelation: message.CorrelationID,
			headerBookID:      envelope.DomainEvent.HasBookID(),
		},
	}, nil
}
