package config

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/library-lending-go/eventstore/postgresengine"
)

// EventStore bundles the configured engine with the function releasing its connections.
type EventStore struct {
	eventstore.EventStore

	// CreateSchema creates the events table, it is a no-op for the in-memory engine.
	CreateSchema func(ctx context.Context) error

	// Close releases all database connections.
	Close func()
}

// OpenEventStore builds the event store engine selected by the configuration.
// Without DATABASE_URL the in-memory engine is used.
func OpenEventStore(
	ctx context.Context,
	cfg *Config,
	logger eventstore.Logger,
	metrics eventstore.MetricsCollector,
) (EventStore, error) {

	if cfg.UsesMemoryEventStore() {
		var options []memoryengine.Option
		if logger != nil {
			options = append(options, memoryengine.WithLogger(logger))
		}
		if metrics != nil {
			options = append(options, memoryengine.WithMetrics(metrics))
		}

		return EventStore{
			EventStore:   memoryengine.NewEventStore(options...),
			CreateSchema: func(context.Context) error { return nil },
			Close:        func() {},
		}, nil
	}

	options := []postgresengine.Option{postgresengine.WithTableName(cfg.EventTable)}
	if logger != nil {
		options = append(options, postgresengine.WithLogger(logger))
	}
	if metrics != nil {
		options = append(options, postgresengine.WithMetrics(metrics))
	}

	switch cfg.DBAdapter {
	case DBAdapterPGX:
		return openPGX(ctx, cfg, options)
	case DBAdapterSQL:
		return openSQL(ctx, cfg, options)
	case DBAdapterSQLX:
		return openSQLX(ctx, cfg, options)
	default:
		return EventStore{}, ErrInvalidDBAdapter
	}
}

func openPGX(ctx context.Context, cfg *Config, options []postgresengine.Option) (EventStore, error) {
	primary, err := NewPGXPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return EventStore{}, err
	}

	if cfg.DatabaseReplicaURL == "" {
		es, err := postgresengine.NewEventStoreFromPGXPool(primary, options...)
		if err != nil {
			primary.Close()
			return EventStore{}, err
		}

		return EventStore{EventStore: es, CreateSchema: es.CreateSchema, Close: primary.Close}, nil
	}

	replica, err := NewPGXPool(ctx, cfg.DatabaseReplicaURL)
	if err != nil {
		primary.Close()
		return EventStore{}, err
	}

	closeAll := func() {
		replica.Close()
		primary.Close()
	}

	es, err := postgresengine.NewEventStoreFromPGXPoolWithReplica(primary, replica, options...)
	if err != nil {
		closeAll()
		return EventStore{}, err
	}

	return EventStore{EventStore: es, CreateSchema: es.CreateSchema, Close: closeAll}, nil
}

func openSQL(ctx context.Context, cfg *Config, options []postgresengine.Option) (EventStore, error) {
	primary, err := NewSQLDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return EventStore{}, err
	}

	if cfg.DatabaseReplicaURL == "" {
		es, err := postgresengine.NewEventStoreFromSQLDB(primary, options...)
		if err != nil {
			_ = primary.Close()
			return EventStore{}, err
		}

		return EventStore{EventStore: es, CreateSchema: es.CreateSchema, Close: func() { _ = primary.Close() }}, nil
	}

	replica, err := NewSQLDB(ctx, cfg.DatabaseReplicaURL)
	if err != nil {
		_ = primary.Close()
		return EventStore{}, err
	}

	closeAll := func() {
		_ = replica.Close()
		_ = primary.Close()
	}

	es, err := postgresengine.NewEventStoreFromSQLDBWithReplica(primary, replica, options...)
	if err != nil {
		closeAll()
		return EventStore{}, err
	}

	return EventStore{EventStore: es, CreateSchema: es.CreateSchema, Close: closeAll}, nil
}

func openSQLX(ctx context.Context, cfg *Config, options []postgresengine.Option) (EventStore, error) {
	primary, err := NewSQLXDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return EventStore{}, err
	}

	if cfg.DatabaseReplicaURL == "" {
		es, err := postgresengine.NewEventStoreFromSQLX(primary, options...)
		if err != nil {
			_ = primary.Close()
			return EventStore{}, err
		}

		return EventStore{EventStore: es, CreateSchema: es.CreateSchema, Close: func() { _ = primary.Close() }}, nil
	}

	replica, err := NewSQLXDB(ctx, cfg.DatabaseReplicaURL)
	if err != nil {
		_ = primary.Close()
		return EventStore{}, err
	}

	closeAll := func() {
		_ = replica.Close()
		_ = primary.Close()
	}

	es, err := postgresengine.NewEventStoreFromSQLXWithReplica(primary, replica, options...)
	if err != nil {
		closeAll()
		return EventStore{}, err
	}

	return EventStore{EventStore: es, CreateSchema: es.CreateSchema, Close: closeAll}, nil
}
