package adapter

import (
	"context"
	"time"
)

// Retry runs fn with bounded retry and linear backoff. Only connection and
// transient failures are retried; integrity errors come back immediately,
// since a constraint violation is data of the run, never a reason to retry.
func Retry(ctx context.Context, maxRetries int, delay time.Duration, fn func() ExecResult) ExecResult {
	if delay <= 0 {
		delay = 250 * time.Millisecond
	}
	res := fn()
	for attempt := 0; attempt < maxRetries; attempt++ {
		if res.OK || (res.Class != ErrClassConnection && res.Class != ErrClassTransient) {
			return res
		}
		select {
		case <-ctx.Done():
			return Failed(ErrClassTimeout, ctx.Err())
		case <-time.After(delay * time.Duration(attempt+1)):
		}
		res = fn()
	}
	return res
}
