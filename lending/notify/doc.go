// Package notify publishes committed lending events to a RabbitMQ topic exchange.
//
// Publishing runs after the append succeeded, so subscribers may see an event late or, if the
// broker stays unreachable, not at all. The event store remains the source of truth.
package notify
