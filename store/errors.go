package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

var (
	// ErrNotFound means a read returned no rows or an insert produced no id.
	ErrNotFound = eris.New("store: not found")
	// ErrNoRowsModified means a mutation matched nothing. Callers usually treat it as
	// "already in the desired state" or "lost a race".
	ErrNoRowsModified = eris.New("store: no rows modified")
	// ErrStoreBusy means lock contention outlasted every retry.
	ErrStoreBusy = eris.New("store: busy")
)

// Postgres SQLSTATEs that signal contention rather than a broken statement.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
)

// isContention reports whether err is worth retrying.
func isContention(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
		return true
	}
	return false
}
