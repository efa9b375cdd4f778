package main

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/AntonStoeckl/library-lending-go/lending/auth"
	"github.com/AntonStoeckl/library-lending-go/lending/catalog"
	"github.com/AntonStoeckl/library-lending-go/lending/circulation"
	"github.com/AntonStoeckl/library-lending-go/lending/httpapi"
	"github.com/AntonStoeckl/library-lending-go/lending/notify"
	"github.com/AntonStoeckl/library-lending-go/lending/queries"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell/config"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell/metrics"
)

// service is the fully wired lending service.
type service struct {
	deps    httpapi.Dependencies
	events  config.EventStore
	usersDB *gorm.DB
	closers []func() error
}

func (s *service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}

	return errors.Join(errs...)
}

func openDirectory(c *cli) (auth.Directory, *gorm.DB, error) {
	db, err := auth.OpenDirectoryDB(c.cfg.UsersDBDriver, c.cfg.UsersDBDSN)
	if err != nil {
		return auth.Directory{}, nil, err
	}

	return auth.NewDirectory(db), db, nil
}

func buildService(ctx context.Context, c *cli) (*service, error) {
	collector := metrics.NewPrometheusCollector()
	s := &service{}

	events, err := config.OpenEventStore(ctx, c.cfg, c.logger, collector)
	if err != nil {
		return nil, err
	}
	s.events = events
	s.closers = append(s.closers, func() error { events.Close(); return nil })

	directory, usersDB, err := openDirectory(c)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.usersDB = usersDB
	s.closers = append(s.closers, func() error { return auth.CloseDirectoryDB(usersDB) })

	var publisher shell.EventPublisher = shell.NoopPublisher{}
	if c.cfg.RabbitMQURL != "" {
		amqpPublisher, err := notify.Dial(
			c.cfg.RabbitMQURL,
			notify.WithLogger(c.logger),
			notify.WithMetrics(collector),
		)
		if err != nil {
			_ = s.Close()
			return nil, err
		}

		publisher = amqpPublisher
		s.closers = append(s.closers, amqpPublisher.Close)
	}

	observer := shell.NewObserver(c.logger, collector)
	locks := shell.NewBookLocks()
	policy := circulation.Policy{
		EnforceBorrowerIdentity: c.cfg.EnforceBorrowerIdentity,
		MaxLoansPerUser:         c.cfg.MaxLoansPerUser,
	}

	s.deps = httpapi.Dependencies{
		Catalog: catalog.NewCommandHandler(
			events,
			catalog.WithLocks(locks),
			catalog.WithObserver(observer),
			catalog.WithPublisher(publisher),
		),
		Books: catalog.NewStore(events, observer),
		Circulation: circulation.NewCommandHandler(
			events,
			circulation.WithLocks(locks),
			circulation.WithPolicy(policy),
			circulation.WithObserver(observer),
			circulation.WithPublisher(publisher),
		),
		Queries:        queries.NewFacade(events, directory, observer),
		Users:          directory,
		Tokens:         auth.NewTokenIssuer(c.cfg.JWTSecret, c.cfg.TokenTTL),
		Logger:         c.logger,
		Metrics:        collector,
		MetricsHandler: collector.Handler(),
	}

	return s, nil
}
