package mssql

import (
	"context"
	"errors"
	"net"

	mssql "github.com/microsoft/go-mssqldb"

	"saiql/internal/adapter"
)

// classify buckets a go-mssqldb error by server error number.
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
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		switch msErr.Number {
		case 515, 547, 2601, 2627: // null, FK/check, duplicate index, duplicate key
			return adapter.ErrClassIntegrity
		case 1205: // deadlock victim
			return adapter.ErrClassTransient
		case 1222: // lock request timeout
			return adapter.ErrClassTransient
		case 4060, 10054, 10060, 10061, 18456:
			return adapter.ErrClassConnection
		}
		return adapter.ErrClassOther
	}
	return adapter.ErrClassOther
}
