package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/device-scheduler/internal/maintenance"
	"github.com/example/device-scheduler/internal/scheduler"
)

// User is a person who can own and reserve devices.
type User struct {
	ID   string
	Name string
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	ID   string
	Name string
}

// Device is an inventory item that can be reserved.
type Device struct {
	ID              string
	Name            string
	ManagedByUserID string
	IsActive        bool
}

// DeviceInput captures the attributes of a new device. IsActive defaults to
// true when nil.
type DeviceInput struct {
	Name            string
	ManagedByUserID string
	IsActive        *bool
}

// DeviceUpdate lists the device attributes to change. Nil fields are kept.
// An empty ManagedByUserID clears the responsible user.
type DeviceUpdate struct {
	Name            *string
	ManagedByUserID *string
	IsActive        *bool
}

// Reservation books a device for a user over [Start, End).
type Reservation struct {
	ID       string
	DeviceID string
	UserID   string
	Start    time.Time
	End      time.Time
}

// ReservationInput captures a reservation request.
type ReservationInput struct {
	DeviceID string
	UserID   string
	Start    time.Time
	End      time.Time
}

// ReservationView is a reservation joined with the names of its device and
// user. Names fall back to the ids when the referenced record is gone.
type ReservationView struct {
	Reservation
	DeviceName string
	UserName   string
}

// ListReservationsParams narrows a reservation listing. An empty DeviceID
// lists every reservation.
type ListReservationsParams struct {
	DeviceID string
}

// Availability is the answer to an availability check.
type Availability struct {
	DeviceID  string
	Start     time.Time
	End       time.Time
	Available bool
	Conflicts []scheduler.Conflict
}

// MaintenanceRecord is the maintenance schedule of one device.
type MaintenanceRecord = maintenance.Record

// MaintenanceInput replaces the maintenance schedule of a device. An
// IntervalDays of zero leaves the interval unset.
type MaintenanceInput struct {
	FirstMaintenance *time.Time
	IntervalDays     int
	Cost             decimal.Decimal
	EndOfLife        *time.Time
}

// MaintenanceState classifies a device for the maintenance overview.
type MaintenanceState string

const (
	// MaintenanceScheduled means a next maintenance date exists.
	MaintenanceScheduled MaintenanceState = "scheduled"
	// MaintenanceUndetermined means the first date or the interval is missing.
	MaintenanceUndetermined MaintenanceState = "undetermined"
	// MaintenanceRetired means the device reached its end of life before the
	// next occurrence.
	MaintenanceRetired MaintenanceState = "retired"
)

// MaintenanceStatus is a maintenance record with its projected next date.
type MaintenanceStatus struct {
	Record   MaintenanceRecord
	NextDate *time.Time
	State    MaintenanceState
}

// DeviceMaintenance pairs a device with its maintenance status.
type DeviceMaintenance struct {
	Device Device
	MaintenanceStatus
}

// QuarterCost is the maintenance cost due in one calendar quarter.
type QuarterCost struct {
	QuarterStart time.Time
	QuarterEnd   time.Time
	Total        decimal.Decimal
}

// MaintenanceOverview lists every device with its next maintenance and the
// cost of the current quarter.
type MaintenanceOverview struct {
	Devices []DeviceMaintenance
	Quarter QuarterCost
}
