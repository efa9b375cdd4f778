package eventstore

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var ErrInvalidPayloadJSON = errors.New("payload json is not valid")
var ErrInvalidMetadataJSON = errors.New("metadata json is not valid")

// StorableEvents is an alias type for a slice of StorableEvent
type StorableEvents = []StorableEvent

// StorableEvent is a DTO (data transfer object) used by the EventStore to append events and query them back.
//
// It is built on scalars to be completely agnostic of the implementation of Domain Events in the client code.
//
// SequenceNumber is assigned by the store. It is set on events returned by Query and ignored by Append.
//
// While its properties are exported, it should only be constructed with the supplied factory methods:
//   - BuildStorableEvent
//   - BuildStorableEventWithEmptyMetadata
type StorableEvent struct {
	EventType      string
	OccurredAt     time.Time
	PayloadJSON    []byte
	MetadataJSON   []byte
	SequenceNumber MaxSequenceNumberUint
}

// BuildStorableEvent is a factory method for StorableEvent.
//
// It populates the StorableEvent with the given scalar input.
// Returns an error if payloadJSON or metadataJSON are not valid JSON.
func BuildStorableEvent(eventType string, occurredAt time.Time, payloadJSON []byte, metadataJSON []byte) (StorableEvent, error) {
	if !jsoniter.ConfigFastest.Valid(payloadJSON) {
		return StorableEvent{}, ErrInvalidPayloadJSON
	}

	if !jsoniter.ConfigFastest.Valid(metadataJSON) {
		return StorableEvent{}, ErrInvalidMetadataJSON
	}

	return StorableEvent{
		EventType:    eventType,
		OccurredAt:   occurredAt,
		PayloadJSON:  payloadJSON,
		MetadataJSON: metadataJSON,
	}, nil
}

// BuildStorableEventWithEmptyMetadata is a factory method for StorableEvent.
//
// It populates the StorableEvent with the given scalar input and creates valid empty JSON for MetadataJSON.
// Returns an error if payloadJSON is not valid JSON.
func BuildStorableEventWithEmptyMetadata(eventType string, occurredAt time.Time, payloadJSON []byte) (StorableEvent, error) {
	return BuildStorableEvent(eventType, occurredAt, payloadJSON, []byte("{}"))
}

// withSequenceNumber returns a copy of the event carrying the store-assigned sequence number.
func (e StorableEvent) withSequenceNumber(sequenceNumber MaxSequenceNumberUint) StorableEvent {
	e.SequenceNumber = sequenceNumber

	return e
}

// RestoreStorableEvent rebuilds a StorableEvent read back from an engine, including its sequence number.
// It is meant for engine implementations only.
func RestoreStorableEvent(
	eventType string,
	occurredAt time.Time,
	payloadJSON []byte,
	metadataJSON []byte,
	sequenceNumber MaxSequenceNumberUint,
) (StorableEvent, error) {

	event, err := BuildStorableEvent(eventType, occurredAt, payloadJSON, metadataJSON)
	if err != nil {
		return StorableEvent{}, err
	}

	return event.withSequenceNumber(sequenceNumber), nil
}
