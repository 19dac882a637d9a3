package main

import (
	"errors"
	"fmt"
)

// ErrAuthenticationUnavailable is returned when a login is required but the
// run is not allowed to open an interactive browser session. It is fatal for
// the whole run: no driver may execute without an authenticated context.
var ErrAuthenticationUnavailable = errors.New("authentication required but interactive login is unavailable")

// ErrLoginTimeout is returned when an interactive login was opened but the
// authenticated marker never appeared within the configured window.
var ErrLoginTimeout = errors.New("interactive login timed out")

// StorageError wraps failures of the session store or the ledger. It is fatal
// for the run and never corrupts already-persisted state.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op, path string, err error) error {
	return &StorageError{Op: op, Path: path, Err: err}
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
