// Package httpapi is the HTTP request boundary of the lending service, built on fiber.
//
// It resolves the bearer credential before any lending logic runs, validates request bodies,
// calls the command handlers and the query facade, and maps the error taxonomy to status codes.
package httpapi
