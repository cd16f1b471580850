package calendar

import (
	"errors"
	"fmt"
)

// GatewayError wraps a failed calendar call. Transient errors (network
// hiccups, timeouts, 5xx, rate limiting) are worth retrying with backoff;
// permanent ones (bad calendar configuration, auth) are surfaced immediately.
type GatewayError struct {
	Op         string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("calendar %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("calendar %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a calendar failure worth retrying.
func IsTransient(err error) bool {
	var gw *GatewayError
	return errors.As(err, &gw) && gw.Transient
}

func transientStatus(status int) bool {
	return status == 429 || status >= 500
}

func newStatusError(op string, status int, body string) *GatewayError {
	return &GatewayError{
		Op:         op,
		StatusCode: status,
		Transient:  transientStatus(status),
		Err:        fmt.Errorf("unexpected response: %s", body),
	}
}

func newTransportError(op string, err error) *GatewayError {
	// Network failures and client timeouts are always retryable.
	return &GatewayError{Op: op, Transient: true, Err: err}
}
