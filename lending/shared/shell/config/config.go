package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Database adapters of the PostgreSQL event store.
const (
	DBAdapterPGX  = "pgx"
	DBAdapterSQL  = "sql"
	DBAdapterSQLX = "sqlx"
)

// Drivers of the user directory.
const (
	UsersDriverPostgres = "postgres"
	UsersDriverSQLite   = "sqlite"
)

var (
	ErrInvalidDBAdapter   = errors.New("DB_ADAPTER must be one of pgx, sql, sqlx")
	ErrInvalidUsersDriver = errors.New("USERS_DB_DRIVER must be postgres or sqlite")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET must be set")
	ErrInvalidValue       = errors.New("invalid configuration value")
)

// Config holds all configuration for lendingd.
type Config struct {
	HTTPAddr                string
	DatabaseURL             string // empty selects the in-memory event store
	DatabaseReplicaURL      string
	DBAdapter               string
	EventTable              string
	UsersDBDriver           string
	UsersDBDSN              string
	JWTSecret               string
	TokenTTL                time.Duration
	LogLevel                string
	RabbitMQURL             string // empty disables notifications
	EnforceBorrowerIdentity bool
	MaxLoansPerUser         int
}

// Load reads the configuration from the environment. Values from a .env file in the working
// directory are used for variables which are not set in the environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // a missing .env file is fine

	return FromEnv()
}

// FromEnv reads the configuration from the environment only.
func FromEnv() (*Config, error) {
	tokenTTL, err := getDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	enforceBorrowerIdentity, err := getBool("ENFORCE_BORROWER_IDENTITY", false)
	if err != nil {
		return nil, err
	}

	maxLoansPerUser, err := getInt("MAX_LOANS_PER_USER", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:                getEnv("HTTP_ADDR", ":3000"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		DatabaseReplicaURL:      getEnv("DATABASE_REPLICA_URL", ""),
		DBAdapter:               getEnv("DB_ADAPTER", DBAdapterPGX),
		EventTable:              getEnv("EVENT_TABLE", "events"),
		UsersDBDriver:           getEnv("USERS_DB_DRIVER", UsersDriverSQLite),
		UsersDBDSN:              getEnv("USERS_DB_DSN", "file:lending-users.db"),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		TokenTTL:                tokenTTL,
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		RabbitMQURL:             getEnv("RABBITMQ_URL", ""),
		EnforceBorrowerIdentity: enforceBorrowerIdentity,
		MaxLoansPerUser:         maxLoansPerUser,
	}

	return cfg, nil
}

// Validate checks the values needed to serve requests.
func (c *Config) Validate() error {
	switch c.DBAdapter {
	case DBAdapterPGX, DBAdapterSQL, DBAdapterSQLX:
	default:
		return ErrInvalidDBAdapter
	}

	switch c.UsersDBDriver {
	case UsersDriverPostgres, UsersDriverSQLite:
	default:
		return ErrInvalidUsersDriver
	}

	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}

	if c.MaxLoansPerUser < 0 {
		return fmt.Errorf("%w: MAX_LOANS_PER_USER must not be negative", ErrInvalidValue)
	}

	return nil
}

// UsesMemoryEventStore reports whether no database is configured.
func (c *Config) UsesMemoryEventStore() bool {
	return c.DatabaseURL == ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
	}

	return value, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
	}

	return value, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
	}

	return value, nil
}
