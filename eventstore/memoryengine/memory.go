package memoryengine

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
)

const (
	logMsgQueryCompleted      = "eventstore operation: query completed"
	logMsgEventsAppended      = "eventstore operation: events appended"
	logMsgConcurrencyConflict = "eventstore operation: concurrency conflict detected"
	logAttrEventCount         = "event_count"
	logAttrExpectedSequence   = "expected_sequence"
	logAttrActualSequence     = "actual_sequence"
	errorTypeConflict         = "concurrency_conflict"
	errorTypeInvalidEvent     = "invalid_event"
)

type storedEvent struct {
	event   eventstore.StorableEvent
	payload map[string]any
}

// EventStore keeps all events in a slice guarded by a RWMutex.
type EventStore struct {
	mu               *sync.RWMutex
	events           *[]storedEvent
	logger           eventstore.Logger
	metricsCollector eventstore.MetricsCollector
}

var _ eventstore.EventStore = EventStore{}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore)

// WithLogger sets the logger for the EventStore.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) {
		es.logger = logger
	}
}

// WithMetrics sets the metrics collector for the EventStore.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(es *EventStore) {
		es.metricsCollector = collector
	}
}

// NewEventStore creates an empty EventStore. Copies of the returned value share the same events.
func NewEventStore(options ...Option) EventStore {
	events := make([]storedEvent, 0)

	es := EventStore{
		mu:     &sync.RWMutex{},
		events: &events,
	}

	for _, option := range options {
		option(&es)
	}

	return es
}

// Query returns the events matching the filter in sequence order and the highest sequence number among them.
func (es EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	if err := ctx.Err(); err != nil {
		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	start := time.Now()

	es.mu.RLock()
	eventStream, maxSequenceNumber := es.matching(filter)
	es.mu.RUnlock()

	es.recordDuration(eventstore.MetricQueryDuration, time.Since(start), eventstore.OperationQuery, eventstore.StatusSuccess)
	es.recordValue(eventstore.MetricEventsQueried, float64(len(eventStream)), eventstore.OperationQuery)

	if es.logger != nil {
		es.logger.Debug(logMsgQueryCompleted, logAttrEventCount, len(eventStream))
	}

	return eventStream, maxSequenceNumber, nil
}

// Append stores the events if the filtered stream's highest sequence number still equals expectedMaxSequenceNumber.
func (es EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	if err := ctx.Err(); err != nil {
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	allEvents := append(eventstore.StorableEvents{event}, additionalEvents...)

	toStore := make([]storedEvent, 0, len(allEvents))
	for _, e := range allEvents {
		payload, err := decodePayload(e.PayloadJSON)
		if err != nil {
			es.recordError(eventstore.OperationAppend, errorTypeInvalidEvent)
			return errors.Join(eventstore.ErrAppendingEventFailed, err)
		}

		toStore = append(toStore, storedEvent{event: e, payload: payload})
	}

	start := time.Now()

	es.mu.Lock()
	defer es.mu.Unlock()

	_, actualMaxSequenceNumber := es.matching(filter)
	if actualMaxSequenceNumber != expectedMaxSequenceNumber {
		if es.logger != nil {
			es.logger.Info(
				logMsgConcurrencyConflict,
				logAttrExpectedSequence, expectedMaxSequenceNumber,
				logAttrActualSequence, actualMaxSequenceNumber,
			)
		}

		if es.metricsCollector != nil {
			es.metricsCollector.IncrementCounter(eventstore.MetricConcurrencyConflicts, map[string]string{
				eventstore.LabelOperation: eventstore.OperationAppend,
				eventstore.LabelErrorType: errorTypeConflict,
			})
		}

		return eventstore.ErrConcurrencyConflict
	}

	for _, s := range toStore {
		s.event.SequenceNumber = eventstore.MaxSequenceNumberUint(len(*es.events) + 1)
		s.event.PayloadJSON = slices.Clone(s.event.PayloadJSON)
		s.event.MetadataJSON = slices.Clone(s.event.MetadataJSON)
		*es.events = append(*es.events, s)
	}

	es.recordDuration(eventstore.MetricAppendDuration, time.Since(start), eventstore.OperationAppend, eventstore.StatusSuccess)
	es.recordValue(eventstore.MetricEventsAppended, float64(len(toStore)), eventstore.OperationAppend)

	if es.logger != nil {
		es.logger.Debug(logMsgEventsAppended, logAttrEventCount, len(toStore))
	}

	return nil
}

// matching must be called with at least a read lock held.
func (es EventStore) matching(filter eventstore.Filter) (eventstore.StorableEvents, eventstore.MaxSequenceNumberUint) {
	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, s := range *es.events {
		if !matchesFilter(s, filter) {
			continue
		}

		e := s.event
		e.PayloadJSON = slices.Clone(e.PayloadJSON)
		e.MetadataJSON = slices.Clone(e.MetadataJSON)
		eventStream = append(eventStream, e)
		maxSequenceNumber = e.SequenceNumber
	}

	return eventStream, maxSequenceNumber
}

func matchesFilter(s storedEvent, filter eventstore.Filter) bool {
	if from := filter.OccurredFrom(); !from.IsZero() && s.event.OccurredAt.Before(from) {
		return false
	}

	if until := filter.OccurredUntil(); !until.IsZero() && s.event.OccurredAt.After(until) {
		return false
	}

	if len(filter.Items()) == 0 {
		return true
	}

	for _, item := range filter.Items() {
		if matchesItem(s, item) {
			return true
		}
	}

	return false
}

func matchesItem(s storedEvent, item eventstore.FilterItem) bool {
	if len(item.EventTypes()) > 0 && !slices.Contains(item.EventTypes(), s.event.EventType) {
		return false
	}

	if len(item.Predicates()) == 0 {
		return true
	}

	matches := func(p eventstore.FilterPredicate) bool {
		val, ok := s.payload[p.Key()].(string)
		return ok && val == p.Val()
	}

	if item.AllPredicatesMustMatch() {
		for _, p := range item.Predicates() {
			if !matches(p) {
				return false
			}
		}

		return true
	}

	return slices.ContainsFunc(item.Predicates(), matches)
}

// decodePayload keeps the top-level payload fields for predicate matching,
// mirroring a JSONB containment check on flat string values.
func decodePayload(payloadJSON []byte) (map[string]any, error) {
	payload := make(map[string]any)

	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, errors.Join(eventstore.ErrInvalidPayloadJSON, err)
	}

	return payload, nil
}

func (es EventStore) recordDuration(metric string, duration time.Duration, operation, status string) {
	if es.metricsCollector != nil {
		es.metricsCollector.RecordDuration(metric, duration, map[string]string{
			eventstore.LabelOperation: operation,
			eventstore.LabelStatus:    status,
		})
	}
}

func (es EventStore) recordValue(metric string, value float64, operation string) {
	if es.metricsCollector != nil {
		es.metricsCollector.RecordValue(metric, value, map[string]string{
			eventstore.LabelOperation: operation,
			eventstore.LabelStatus:    eventstore.StatusSuccess,
		})
	}
}

func (es EventStore) recordError(operation, errorType string) {
	if es.metricsCollector != nil {
		es.metricsCollector.IncrementCounter(eventstore.MetricDatabaseErrors, map[string]string{
			eventstore.LabelOperation: operation,
			eventstore.LabelStatus:    eventstore.StatusError,
			eventstore.LabelErrorType: errorType,
		})
	}
}
