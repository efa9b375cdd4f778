// Package config loads the configuration of lendingd from the environment (optionally from a
// .env file) and builds the infrastructure it describes: the slog logger, PostgreSQL
// connections and the event store engine.
package config
