package delegate

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// DelegateError wraps provider errors with status metadata.
type DelegateError struct {
	Status    int
	Temporary bool
	Err       error
}

func (e *DelegateError) Error() string {
	if e == nil {
		return "delegate error"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("delegate error (status=%d)", e.Status)
}

func (e *DelegateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTransient reports whether an error is safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var delegateErr *DelegateError
	if errors.As(err, &delegateErr) {
		if delegateErr.Temporary {
			return true
		}
		if delegateErr.Status == 429 || (delegateErr.Status >= 500 && delegateErr.Status <= 599) {
			return true
		}
	}
	return false
}
