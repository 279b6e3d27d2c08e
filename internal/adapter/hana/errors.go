package hana

import (
	"context"
	"errors"
	"net"

	"github.com/SAP/go-hdb/driver"

	"saiql/internal/adapter"
)

// classify buckets a go-hdb error by HANA error code.
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
	var dbErr driver.DBError
	if errors.As(err, &dbErr) {
		switch dbErr.Code() {
		case 287, 301, 461, 462: // NULL violation, unique, FK child, FK parent
			return adapter.ErrClassIntegrity
		case 131, 133: // lock wait timeout, deadlock
			return adapter.ErrClassTransient
		case 10, 414: // authentication failed, user locked
			return adapter.ErrClassConnection
		}
		return adapter.ErrClassOther
	}
	return adapter.ErrClassOther
}
