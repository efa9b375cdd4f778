package eventstore

import "context"

// ConsistencyLevel tells an engine whether a read may be served by a replica.
type ConsistencyLevel int

const (
	// StrongConsistency reads from the primary. Command handlers doing read-decide-append
	// must see their own writes, so this is the default.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency allows reads from a replica. Catalog listings and transaction
	// history can live with a few milliseconds of lag.
	EventualConsistency
)

type contextKey string

// ConsistencyLevelKey is the context key used to store the consistency level.
const ConsistencyLevelKey contextKey = "eventstore.consistency_level"

// WithStrongConsistency returns a context that routes EventStore reads to the primary database.
//
//	ctx = eventstore.WithStrongConsistency(ctx)
//	events, maxSeq, err := eventStore.Query(ctx, filter)
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, StrongConsistency)
}

// WithEventualConsistency returns a context that allows EventStore reads from a replica database.
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, EventualConsistency)
}

// GetConsistencyLevel extracts the consistency level from the context, defaulting to StrongConsistency.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	if level, ok := ctx.Value(ConsistencyLevelKey).(ConsistencyLevel); ok {
		return level
	}

	return StrongConsistency
}

func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
