// ABOUTME: Upload failure types
// ABOUTME: Error carries both strategies' causes when no bytes reached storage

package upload

import (
	"errors"
	"fmt"
)

// ErrDirectUnavailable means the direct strategy was skipped.
var ErrDirectUnavailable = errors.New("direct transfer unavailable")

// Error reports that neither strategy delivered the bytes.
type Error struct {
	Direct error
	Relay  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("upload failed: direct: %v; relay: %v", e.Direct, e.Relay)
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Direct != nil {
		errs = append(errs, e.Direct)
	}
	if e.Relay != nil {
		errs = append(errs, e.Relay)
	}
	return errs
}

// StorageError is a non-2xx answer from the storage target on a direct PUT.
type StorageError struct {
	Status  int
	Details string
}

func (e *StorageError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("storage rejected upload (%d): %s", e.Status, e.Details)
	}
	return fmt.Sprintf("storage rejected upload (%d)", e.Status)
}
