package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// pgUniqueViolation is the SQLSTATE class for unique constraint violations.
const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation from either supported driver. When constraint names
// are provided, at least one must appear in the error. Postgres reports the
// index name while SQLite reports the indexed column path
// ("orders.prescription_id"), so callers guarding a specific index pass both
// shapes.
func IsUniqueViolation(err error, constraintNames ...string) bool {
	if err == nil {
		return false
	}

	matched := false

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		matched = pgxErr.Code == pgUniqueViolation
	case errors.As(err, &pqErr):
		matched = string(pqErr.Code) == pgUniqueViolation
	default:
		// mattn/go-sqlite3 reports "UNIQUE constraint failed: table.column".
		matched = strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "duplicate key value")
	}

	if !matched {
		return false
	}
	if len(constraintNames) == 0 {
		return true
	}
	for _, name := range constraintNames {
		if name != "" && strings.Contains(err.Error(), name) {
			return true
		}
	}
	return false
}
