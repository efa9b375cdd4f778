package config_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell/config"
)

func Test_FromEnv_Defaults(t *testing.T) {
	// arrange
	for _, key := range []string{
		"HTTP_ADDR", "DATABASE_URL", "DATABASE_REPLICA_URL", "DB_ADAPTER", "EVENT_TABLE", "USERS_DB_DRIVER",
		"USERS_DB_DSN", "JWT_SECRET", "TOKEN_TTL", "LOG_LEVEL", "RABBITMQ_URL", "ENFORCE_BORROWER_IDENTITY",
		"MAX_LOANS_PER_USER",
	} {
		t.Setenv(key, "")
	}

	// act
	cfg, err := config.FromEnv()

	// assert
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, config.DBAdapterPGX, cfg.DBAdapter)
	assert.Equal(t, "events", cfg.EventTable)
	assert.Equal(t, config.UsersDriverSQLite, cfg.UsersDBDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.EnforceBorrowerIdentity)
	assert.Zero(t, cfg.MaxLoansPerUser)
	assert.True(t, cfg.UsesMemoryEventStore())
}

func Test_FromEnv_Overrides(t *testing.T) {
	// arrange
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("DATABASE_URL", "postgres://localhost/lending")
	t.Setenv("DB_ADAPTER", "sqlx")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("ENFORCE_BORROWER_IDENTITY", "true")
	t.Setenv("MAX_LOANS_PER_USER", "3")
	t.Setenv("JWT_SECRET", "s3cr3t")

	// act
	cfg, err := config.FromEnv()

	// assert
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, config.DBAdapterSQLX, cfg.DBAdapter)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.EnforceBorrowerIdentity)
	assert.Equal(t, 3, cfg.MaxLoansPerUser)
	assert.False(t, cfg.UsesMemoryEventStore())
	assert.NoError(t, cfg.Validate())
}

func Test_FromEnv_RejectsMalformedValues(t *testing.T) {
	testCases := []struct {
		key   string
		value string
	}{
		{key: "TOKEN_TTL", value: "forever"},
		{key: "ENFORCE_BORROWER_IDENTITY", value: "maybe"},
		{key: "MAX_LOANS_PER_USER", value: "three"},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			// arrange
			t.Setenv(tc.key, tc.value)

			// act
			_, err := config.FromEnv()

			// assert
			assert.ErrorIs(t, err, config.ErrInvalidValue)
		})
	}
}

func Test_Validate(t *testing.T) {
	valid := config.Config{DBAdapter: config.DBAdapterSQL, UsersDBDriver: config.UsersDriverPostgres, JWTSecret: "x"}

	testCases := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "unknown adapter", mutate: func(c *config.Config) { c.DBAdapter = "gorm" }, wantErr: config.ErrInvalidDBAdapter},
		{name: "unknown users driver", mutate: func(c *config.Config) { c.UsersDBDriver = "mysql" }, wantErr: config.ErrInvalidUsersDriver},
		{name: "missing secret", mutate: func(c *config.Config) { c.JWTSecret = "" }, wantErr: config.ErrMissingJWTSecret},
		{name: "negative loan limit", mutate: func(c *config.Config) { c.MaxLoansPerUser = -1 }, wantErr: config.ErrInvalidValue},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			cfg := valid
			tc.mutate(&cfg)

			// act
			err := cfg.Validate()

			// assert
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func Test_ParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, config.ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, config.ParseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, config.ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, config.ParseLogLevel("nonsense"))
}

func Test_OpenEventStore_WithoutDatabaseURL_UsesMemoryEngine(t *testing.T) {
	// arrange
	cfg := &config.Config{}

	// act
	es, err := config.OpenEventStore(context.Background(), cfg, nil, nil)

	// assert
	require.NoError(t, err)
	defer es.Close()
	assert.NoError(t, es.CreateSchema(context.Background()))

	events, maxSeq, err := es.Query(context.Background(), eventstoreAnyEvent())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Zero(t, maxSeq)
}
