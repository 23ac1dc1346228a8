// Package postgres persists sessions, refresh credential records, and
// principal lookups in PostgreSQL via pgx.
//
// Repositories take a small Querier interface instead of a concrete
// pool so tests can substitute pgxmock. Row-not-found conditions map to
// the owning package's sentinel (session.ErrNotFound,
// token.ErrRecordNotFound); every other failure wraps the owning
// package's unavailability sentinel so callers can tell "no such row"
// from "store is down".
package postgres
