// Package postgres provides PostgreSQL implementations of the store
// interfaces, backed by the pgx driver through database/sql, together with
// the goose migrations that create their schema.
package postgres
