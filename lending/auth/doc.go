// Package auth is the credential collaborator of the lending service.
//
// The Directory keeps users with bcrypt password hashes in a gorm database (PostgreSQL in production,
// SQLite for local runs and tests). The TokenIssuer turns an authenticated user into an HS256 bearer
// token and resolves such tokens back into a core.User for every request.
package auth
