package scheduler

import (
	"time"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidWindow indicates a reservation window whose start is not before its end.
	ErrInvalidWindow = errors.New("scheduler: start must be before end")
	// ErrDeviceUnavailable indicates the device is already reserved for part of the window.
	ErrDeviceUnavailable = errors.New("scheduler: device already reserved in this window")
)

// Reservation is the scheduling view of a stored device reservation.
type Reservation struct {
	ID       string
	DeviceID string
	UserID   string
	Start    time.Time
	End      time.Time
}

// Conflict names an existing reservation that blocks a candidate window.
type Conflict struct {
	WithReservationID string
	DeviceID          string
	UserID            string
	Start             time.Time
	End               time.Time
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share at least one instant. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ValidateWindow rejects windows where start is not strictly before end.
func ValidateWindow(start, end time.Time) error {
	if !start.Before(end) {
		return errors.WithDetailf(ErrInvalidWindow, "start=%s end=%s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

// IsAvailable reports whether deviceID can be booked for [start, end) given the
// existing reservations. Reservations for other devices are ignored.
func IsAvailable(deviceID string, start, end time.Time, existing []Reservation) bool {
	for _, r := range existing {
		if r.DeviceID != deviceID {
			continue
		}
		if Overlaps(start, end, r.Start, r.End) {
			return false
		}
	}
	return true
}

// DetectConflicts returns every existing reservation on the candidate's device
// that overlaps the candidate window, in the order they were supplied.
func DetectConflicts(existing []Reservation, candidate Reservation) []Conflict {
	var conflicts []Conflict
	for _, r := range existing {
		if r.DeviceID != candidate.DeviceID {
			continue
		}
		if r.ID != "" && r.ID == candidate.ID {
			continue
		}
		if !Overlaps(candidate.Start, candidate.End, r.Start, r.End) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			WithReservationID: r.ID,
			DeviceID:          r.DeviceID,
			UserID:            r.UserID,
			Start:             r.Start,
			End:               r.End,
		})
	}
	return conflicts
}

// CreateReservation validates the window, checks availability against the
// existing reservations and returns the new reservation. It does not persist
// anything; callers append the result to their store.
func CreateReservation(deviceID, userID string, start, end time.Time, existing []Reservation, newID func() string) (Reservation, error) {
	if err := ValidateWindow(start, end); err != nil {
		return Reservation{}, err
	}
	if !IsAvailable(deviceID, start, end, existing) {
		return Reservation{}, errors.Wrapf(ErrDeviceUnavailable, "device %s", deviceID)
	}

	id := ""
	if newID != nil {
		id = newID()
	}
	return Reservation{
		ID:       id,
		DeviceID: deviceID,
		UserID:   userID,
		Start:    start,
		End:      end,
	}, nil
}
