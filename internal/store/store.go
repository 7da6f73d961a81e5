// Package store implements the marketplace and trade engine. Every
// mutating operation runs as a single transaction that re-reads current
// state, re-validates ownership/status/quota checks, and mutates all
// affected rows before committing. Read paths are advisory and may return
// stale data; the in-transaction checks are authoritative.
package store

import (
	"context"
	"database/sql"

	"github.com/oklog/ulid/v2"

	"github.com/erazemk/trznica/internal/model"
)

// Querier is the subset of database/sql satisfied by both *sql.DB and
// *sql.Tx, so aggregate checks can run as advisory pre-checks and again
// inside the authoritative transaction.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewID generates a lexicographically sortable entity identifier.
func NewID() string {
	return ulid.Make().String()
}

// ValidID reports whether s is a well-formed entity identifier. Malformed
// identifiers are rejected at the engine boundary, never passed to SQL.
func ValidID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

func errBadID(what string) *model.Error {
	return model.NewError(model.CodeBadRequest, "invalid "+what+" id")
}
