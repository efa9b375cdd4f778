package config

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const (
	defaultMaxConnections     = 20
	defaultMinConnections     = 2
	defaultMaxIdleConnections = 10
	defaultMaxConnLifetime    = time.Hour
	defaultMaxConnIdleTime    = time.Minute * 5
	defaultHealthCheckPeriod  = time.Minute
	defaultConnectTimeout     = time.Second * 5
	postgresDriverName        = "postgres"
)

// ErrConnectingDatabaseFailed is returned when a database can't be opened or pinged.
var ErrConnectingDatabaseFailed = errors.New("connecting database failed")

// NewPGXPool creates and pings a pgxpool.Pool.
func NewPGXPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Join(ErrConnectingDatabaseFailed, err)
	}

	dbConfig.MaxConns = defaultMaxConnections
	dbConfig.MinConns = defaultMinConnections
	dbConfig.MaxConnLifetime = defaultMaxConnLifetime
	dbConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	dbConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, errors.Join(ErrConnectingDatabaseFailed, err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Join(ErrConnectingDatabaseFailed, err)
	}

	return pool, nil
}

// NewSQLDB opens and pings a *sql.DB using the lib/pq driver.
func NewSQLDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(postgresDriverName, dsn)
	if err != nil {
		return nil, errors.Join(ErrConnectingDatabaseFailed, err)
	}

	configureSQLPool(db)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrConnectingDatabaseFailed, err)
	}

	return db, nil
}

// NewSQLXDB opens and pings a *sqlx.DB using the lib/pq driver.
func NewSQLXDB(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, postgresDriverName, dsn)
	if err != nil {
		return nil, errors.Join(ErrConnectingDatabaseFailed, err)
	}

	configureSQLPool(db.DB)

	return db, nil
}

func configureSQLPool(db *sql.DB) {
	db.SetMaxOpenConns(defaultMaxConnections)
	db.SetMaxIdleConns(defaultMaxIdleConnections)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)
}
