package persistence

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a person who can own devices and reserve them. The ID is usually an
// e-mail address.
type User struct {
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

// Reservation books a device for a user over [Start, End). Both instants are
// stored at minute precision.
type Reservation struct {
	ID       string
	DeviceID string
	UserID   string
	Start    time.Time
	End      time.Time
}

// MaintenanceRecord stores the maintenance schedule of one device. ID always
// equals DeviceID. IntervalDays of zero means the interval is unset.
type MaintenanceRecord struct {
	ID               string
	DeviceID         string
	FirstMaintenance *time.Time
	IntervalDays     int
	Cost             decimal.Decimal
	EndOfLife        *time.Time
}
