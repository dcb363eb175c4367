package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, time.March, 4, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		aStart, aEnd time.Time
		bStart, bEnd time.Time
		want         bool
	}{
		{"identical windows", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"b starts inside a", at(10, 0), at(11, 0), at(10, 30), at(12, 0), true},
		{"b contains a", at(10, 0), at(11, 0), at(9, 0), at(12, 0), true},
		{"a contains b", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"b ends inside a", at(10, 0), at(11, 0), at(9, 0), at(10, 1), true},
		{"b touches a end", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"b touches a start", at(10, 0), at(11, 0), at(9, 0), at(10, 0), false},
		{"disjoint before", at(10, 0), at(11, 0), at(7, 0), at(8, 0), false},
		{"disjoint after", at(10, 0), at(11, 0), at(13, 0), at(14, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
			if got := Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); got != tc.want {
				t.Fatalf("Overlaps is not symmetric: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsAvailable(t *testing.T) {
	t.Parallel()

	existing := []Reservation{
		{ID: "r-1", DeviceID: "scope", UserID: "anna@example.com", Start: at(10, 0), End: at(11, 0)},
		{ID: "r-2", DeviceID: "printer", UserID: "ben@example.com", Start: at(12, 0), End: at(14, 0)},
	}

	t.Run("overlap on the same device is rejected", func(t *testing.T) {
		t.Parallel()
		if IsAvailable("scope", at(10, 30), at(10, 45), existing) {
			t.Fatalf("expected window inside an existing reservation to be unavailable")
		}
	})

	t.Run("back to back windows are accepted", func(t *testing.T) {
		t.Parallel()
		if !IsAvailable("scope", at(11, 0), at(12, 0), existing) {
			t.Fatalf("expected window starting at the previous end to be available")
		}
		if !IsAvailable("scope", at(9, 0), at(10, 0), existing) {
			t.Fatalf("expected window ending at the next start to be available")
		}
	})

	t.Run("reservations of other devices are ignored", func(t *testing.T) {
		t.Parallel()
		if !IsAvailable("scope", at(12, 30), at(13, 0), existing) {
			t.Fatalf("expected printer reservation to be irrelevant for the scope")
		}
	})

	t.Run("repeated calls do not mutate the input", func(t *testing.T) {
		t.Parallel()
		snapshot := append([]Reservation(nil), existing...)
		for i := 0; i < 3; i++ {
			IsAvailable("scope", at(10, 0), at(11, 0), existing)
		}
		if diff := cmp.Diff(snapshot, existing); diff != "" {
			t.Fatalf("existing reservations changed (-want +got):\n%s", diff)
		}
	})
}

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	existing := []Reservation{
		{ID: "r-1", DeviceID: "scope", UserID: "anna@example.com", Start: at(9, 0), End: at(10, 0)},
		{ID: "r-2", DeviceID: "scope", UserID: "ben@example.com", Start: at(10, 0), End: at(11, 0)},
		{ID: "r-3", DeviceID: "scope", UserID: "carla@example.com", Start: at(11, 0), End: at(12, 0)},
		{ID: "r-4", DeviceID: "printer", UserID: "ben@example.com", Start: at(9, 0), End: at(12, 0)},
	}

	got := DetectConflicts(existing, Reservation{DeviceID: "scope", Start: at(9, 30), End: at(10, 30)})
	want := []Conflict{
		{WithReservationID: "r-1", DeviceID: "scope", UserID: "anna@example.com", Start: at(9, 0), End: at(10, 0)},
		{WithReservationID: "r-2", DeviceID: "scope", UserID: "ben@example.com", Start: at(10, 0), End: at(11, 0)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected conflicts (-want +got):\n%s", diff)
	}

	if got := DetectConflicts(existing, Reservation{ID: "r-2", DeviceID: "scope", Start: at(10, 0), End: at(11, 0)}); len(got) != 0 {
		t.Fatalf("expected a reservation not to conflict with itself, got %v", got)
	}
}

func TestCreateReservation(t *testing.T) {
	t.Parallel()

	newID := func() string { return "generated" }

	t.Run("rejects empty and inverted windows", func(t *testing.T) {
		t.Parallel()
		for _, window := range [][2]time.Time{
			{at(10, 0), at(10, 0)},
			{at(11, 0), at(10, 0)},
		} {
			_, err := CreateReservation("scope", "anna@example.com", window[0], window[1], nil, newID)
			if !errors.Is(err, ErrInvalidWindow) {
				t.Fatalf("expected ErrInvalidWindow for %v, got %v", window, err)
			}
		}
	})

	t.Run("rejects overlapping windows", func(t *testing.T) {
		t.Parallel()
		existing := []Reservation{{ID: "r-1", DeviceID: "scope", Start: at(10, 0), End: at(11, 0)}}
		_, err := CreateReservation("scope", "anna@example.com", at(10, 59), at(12, 0), existing, newID)
		if !errors.Is(err, ErrDeviceUnavailable) {
			t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
		}
	})

	t.Run("accepts consecutive windows on the same device", func(t *testing.T) {
		t.Parallel()
		var stored []Reservation
		for _, window := range [][2]time.Time{
			{at(10, 0), at(11, 0)},
			{at(11, 0), at(12, 0)},
		} {
			r, err := CreateReservation("scope", "anna@example.com", window[0], window[1], stored, newID)
			if err != nil {
				t.Fatalf("expected %v to be accepted, got %v", window, err)
			}
			stored = append(stored, r)
		}
		if len(stored) != 2 {
			t.Fatalf("expected two reservations, got %d", len(stored))
		}
		if stored[0].ID != "generated" || stored[1].UserID != "anna@example.com" {
			t.Fatalf("unexpected reservation contents: %#v", stored)
		}
	})
}
