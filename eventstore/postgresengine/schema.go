package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
)

const createTableTemplate = `CREATE TABLE IF NOT EXISTS %s (
	sequence_number BIGSERIAL PRIMARY KEY,
	event_type TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	payload JSONB NOT NULL,
	metadata JSONB NOT NULL,
	append_timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// schemaStatements returns the DDL for the events table and its indexes.
func (es EventStore) schemaStatements() []string {
	table := pgx.Identifier{es.eventTableName}.Sanitize()
	index := func(suffix string) string {
		return pgx.Identifier{strings.Join([]string{es.eventTableName, suffix}, "_")}.Sanitize()
	}

	return []string{
		fmt.Sprintf(createTableTemplate, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (event_type)", index("event_type_idx"), table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (occurred_at)", index("occurred_at_idx"), table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (payload jsonb_path_ops)", index("payload_gin_idx"), table),
	}
}

// CreateSchema creates the events table and its indexes if they don't exist yet.
// It is idempotent and meant to be run by the migrate command or at startup.
func (es EventStore) CreateSchema(ctx context.Context) error {
	for _, statement := range es.schemaStatements() {
		if _, err := es.db.Exec(ctx, statement); err != nil {
			es.logError(logMsgDBExecFailed, err, logAttrQuery, statement)

			return errors.Join(eventstore.ErrCreatingSchemaFailed, err)
		}
	}

	es.logOperation(logMsgSchemaCreated, logAttrTable, es.eventTableName)

	return nil
}
