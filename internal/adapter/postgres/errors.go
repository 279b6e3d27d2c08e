package postgres

import (
	"context"
	"errors"
	"net"

	"github.com/lib/pq"

	"saiql/internal/adapter"
)

// classify buckets a lib/pq error by SQLSTATE class. Constraint violations
// (class 23) are integrity and never retried; serialization failures and
// lock waits (class 40, 55P03) are transient.
func classify(err error) adapter.ErrorClass {
	if err == nil {
		return adapter.ErrClassNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return adapter.ErrClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return adapter.ErrClassTimeout
		}
		return adapter.ErrClassConnection
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "57014": // query_canceled (statement_timeout)
			return adapter.ErrClassTimeout
		case pqErr.Code == "55P03": // lock_not_available
			return adapter.ErrClassTransient
		case pqErr.Code.Class() == "23":
			return adapter.ErrClassIntegrity
		case pqErr.Code.Class() == "40": // serialization failure, deadlock
			return adapter.ErrClassTransient
		case pqErr.Code.Class() == "08":
			return adapter.ErrClassConnection
		case pqErr.Code.Class() == "28": // invalid authorization
			return adapter.ErrClassConnection
		}
		return adapter.ErrClassOther
	}
	return adapter.ErrClassOther
}
