// Package credentials provides reelauth.CredentialStore implementations: an
// in-memory store for development and tests, and a Postgres store over
// pgxpool whose schema is managed by embedded goose migrations.
package credentials
