package application

import (
	"github.com/cockroachdb/errors"

	"github.com/example/device-scheduler/internal/persistence"
	"github.com/example/device-scheduler/internal/scheduler"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a resource with the same identifier exists.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidWindow is returned when a reservation window does not start before it ends.
	ErrInvalidWindow = scheduler.ErrInvalidWindow
	// ErrDeviceUnavailable is returned when a reservation overlaps an existing one.
	ErrDeviceUnavailable = scheduler.ErrDeviceUnavailable
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError reports the reservations that block a requested window.
// It matches ErrDeviceUnavailable with errors.Is.
type ConflictError struct {
	DeviceID  string
	Conflicts []scheduler.Conflict
}

func (e *ConflictError) Error() string {
	return errors.Wrapf(ErrDeviceUnavailable, "device %s: %d conflicting reservation(s)", e.DeviceID, len(e.Conflicts)).Error()
}

func (e *ConflictError) Unwrap() error {
	return ErrDeviceUnavailable
}

// mapRepoError translates store errors into application errors while keeping
// the original as a secondary cause for logging.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAlreadyExists):
		return err
	case errors.Is(err, persistence.ErrNotFound):
		return errors.WithSecondaryError(ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return errors.WithSecondaryError(ErrAlreadyExists, err)
	}
	return err
}
