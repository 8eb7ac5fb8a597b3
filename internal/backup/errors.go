package backup

import "errors"

var (
	// ErrSourceNotFound means the source directory does not exist or is
	// not a directory.
	ErrSourceNotFound = errors.New("source directory not found")

	// ErrVerificationFailed means a freshly written archive did not pass
	// the structural readability check.
	ErrVerificationFailed = errors.New("archive verification failed")
)
