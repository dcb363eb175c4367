package application

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/example/device-scheduler/internal/persistence"
	"github.com/example/device-scheduler/internal/scheduler"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	var nilErr *ValidationError
	if nilErr.Error() != "" || nilErr.HasErrors() {
		t.Fatalf("nil validation error should be empty")
	}

	vErr := &ValidationError{}
	if vErr.HasErrors() {
		t.Fatalf("fresh validation error should have no fields")
	}
	vErr.add("name", "Name ist erforderlich.")
	vErr.merge(&ValidationError{FieldErrors: map[string]string{"managed_by_user_id": "Benutzer nicht gefunden."}})
	vErr.merge(nil)

	if !vErr.HasErrors() || len(vErr.FieldErrors) != 2 {
		t.Fatalf("expected two field errors, got %v", vErr.FieldErrors)
	}
	if vErr.Error() != "validation failed" {
		t.Fatalf("unexpected message %q", vErr.Error())
	}
}

func TestConflictError(t *testing.T) {
	t.Parallel()

	err := error(&ConflictError{DeviceID: "dev-1", Conflicts: []scheduler.Conflict{{WithReservationID: "r-1"}}})

	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("conflict should match ErrDeviceUnavailable")
	}
	var conflict *ConflictError
	if !errors.As(errors.Wrap(err, "create reservation"), &conflict) || conflict.Conflicts[0].WithReservationID != "r-1" {
		t.Fatalf("conflict details lost through wrapping: %v", conflict)
	}
	if !strings.Contains(err.Error(), "dev-1") {
		t.Fatalf("message should name the device, got %q", err.Error())
	}
}

func TestMapRepoError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"store miss", errors.Wrap(persistence.ErrNotFound, "device x"), ErrNotFound},
		{"store duplicate", errors.Mark(errors.New("UNIQUE constraint failed"), persistence.ErrDuplicate), ErrAlreadyExists},
		{"already mapped", ErrNotFound, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := mapRepoError(tc.in); !errors.Is(got, tc.want) {
				t.Fatalf("mapRepoError(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}

	if mapRepoError(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	other := errors.New("disk full")
	if got := mapRepoError(other); got != other {
		t.Fatalf("unrelated errors must pass through unchanged, got %v", got)
	}
}
