package fsutil

import (
	"errors"
	"syscall"
)

// isTransient reports whether an operation hitting err is worth retrying.
func isTransient(err error) bool {
	return errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT)
}
