package oracle

import (
	"context"
	"errors"
	"net"
	"regexp"

	"saiql/internal/adapter"
)

var oraCodeRe = regexp.MustCompile(`ORA-(\d{5})`)

// classify buckets an Oracle error by its ORA code. The driver surfaces
// server errors as text, so matching on the code prefix is the stable path.
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
	m := oraCodeRe.FindStringSubmatch(err.Error())
	if m == nil {
		return adapter.ErrClassOther
	}
	switch m[1] {
	case "00001", "01400", "02290", "02291", "02292":
		// unique, not null, check, FK parent, FK child
		return adapter.ErrClassIntegrity
	case "00054", "00060": // resource busy, deadlock
		return adapter.ErrClassTransient
	case "01013": // operation cancelled
		return adapter.ErrClassTimeout
	case "01017", "12154", "12170", "12514", "12541", "28000":
		return adapter.ErrClassConnection
	}
	return adapter.ErrClassOther
}
