package mysql

import (
	"context"
	"errors"
	"net"

	"github.com/go-sql-driver/mysql"

	"saiql/internal/adapter"
)

// classify buckets a driver error by MySQL error number. Constraint
// violations are integrity; lock waits and deadlocks are transient.
func classify(err error) adapter.ErrorClass {
	if err == nil {
		return adapter.ErrClassNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return adapter.ErrClassTimeout
	}
	if errors.Is(err, mysql.ErrInvalidConn) {
		return adapter.ErrClassConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return adapter.ErrClassTimeout
		}
		return adapter.ErrClassConnection
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1022, 1048, 1062, 1169, 1216, 1217, 1451, 1452, 1557, 1586, 3819:
			return adapter.ErrClassIntegrity
		case 1205, 1213: // lock wait timeout, deadlock
			return adapter.ErrClassTransient
		case 1040, 1042, 1043, 1044, 1045, 1129, 1130, 2002, 2003, 2006, 2013:
			return adapter.ErrClassConnection
		case 3024: // max_execution_time exceeded
			return adapter.ErrClassTimeout
		}
		return adapter.ErrClassOther
	}
	return adapter.ErrClassOther
}
