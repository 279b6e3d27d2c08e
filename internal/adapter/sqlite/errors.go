package sqlite

import (
	"context"
	"errors"

	"github.com/mattn/go-sqlite3"

	"saiql/internal/adapter"
)

// classify buckets a go-sqlite3 error. SQLITE_BUSY and SQLITE_LOCKED are the
// transient pair; every constraint code is integrity.
func classify(err error) adapter.ErrorClass {
	if err == nil {
		return adapter.ErrClassNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return adapter.ErrClassTimeout
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrConstraint:
			return adapter.ErrClassIntegrity
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return adapter.ErrClassTransient
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrPerm, sqlite3.ErrAuth:
			return adapter.ErrClassConnection
		}
		return adapter.ErrClassOther
	}
	return adapter.ErrClassOther
}
