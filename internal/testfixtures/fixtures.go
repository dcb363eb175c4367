package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/device-scheduler/internal/application"
	"github.com/example/device-scheduler/internal/persistence"
)

var (
	userCounter        uint64
	deviceCounter      uint64
	reservationCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID   string
	Name string
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
// Generated ids are e-mail addresses.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	fixture := UserFixture{
		ID:   fmt.Sprintf("user-%03d@example.com", idx),
		Name: fmt.Sprintf("User %03d", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserName overrides the generated name.
func WithUserName(name string) UserOption {
	return func(f *UserFixture) {
		f.Name = name
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{ID: f.ID, Name: f.Name}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{ID: f.ID, Name: f.Name}
}

// Input returns the fixture as application.UserInput.
func (f UserFixture) Input() application.UserInput {
	return application.UserInput{ID: f.ID, Name: f.Name}
}

// ---------------------------- Device fixtures ----------------------------

// DeviceFixture represents a deterministic device record.
type DeviceFixture struct {
	ID              string
	Name            string
	ManagedByUserID string
	IsActive        bool
}

// DeviceOption configures the generated device fixture.
type DeviceOption func(*DeviceFixture)

// NewDeviceFixture returns an active, unmanaged device fixture with optional
// overrides.
func NewDeviceFixture(opts ...DeviceOption) DeviceFixture {
	idx := atomic.AddUint64(&deviceCounter, 1)
	fixture := DeviceFixture{
		ID:       fmt.Sprintf("device-%03d", idx),
		Name:     fmt.Sprintf("Device %03d", idx),
		IsActive: true,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithDeviceID overrides the generated device ID.
func WithDeviceID(id string) DeviceOption {
	return func(f *DeviceFixture) {
		f.ID = id
	}
}

// WithDeviceName overrides the generated name.
func WithDeviceName(name string) DeviceOption {
	return func(f *DeviceFixture) {
		f.Name = name
	}
}

// WithDeviceManager sets the responsible user.
func WithDeviceManager(userID string) DeviceOption {
	return func(f *DeviceFixture) {
		f.ManagedByUserID = userID
	}
}

// WithDeviceActive sets the active flag.
func WithDeviceActive(active bool) DeviceOption {
	return func(f *DeviceFixture) {
		f.IsActive = active
	}
}

// Application returns the fixture as an application.Device value.
func (f DeviceFixture) Application() application.Device {
	return application.Device{
		ID:              f.ID,
		Name:            f.Name,
		ManagedByUserID: f.ManagedByUserID,
		IsActive:        f.IsActive,
	}
}

// Persistence returns the fixture as a persistence.Device value.
func (f DeviceFixture) Persistence() persistence.Device {
	return persistence.Device{
		ID:              f.ID,
		Name:            f.Name,
		ManagedByUserID: f.ManagedByUserID,
		IsActive:        f.IsActive,
	}
}

// Input returns the fixture as application.DeviceInput.
func (f DeviceFixture) Input() application.DeviceInput {
	active := f.IsActive
	return application.DeviceInput{
		Name:            f.Name,
		ManagedByUserID: f.ManagedByUserID,
		IsActive:        &active,
	}
}

// -------------------------- Reservation fixtures --------------------------

// ReservationFixture represents a deterministic reservation.
type ReservationFixture struct {
	ID       string
	DeviceID string
	UserID   string
	Start    time.Time
	End      time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a one hour reservation starting at
// ReferenceTime with optional overrides.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	fixture := ReservationFixture{
		ID:       fmt.Sprintf("reservation-%03d", idx),
		DeviceID: "device-001",
		UserID:   "user-001@example.com",
		Start:    referenceTime,
		End:      referenceTime.Add(time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithReservationDevice sets the reserved device.
func WithReservationDevice(deviceID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.DeviceID = deviceID
	}
}

// WithReservationUser sets the reserving user.
func WithReservationUser(userID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.UserID = userID
	}
}

// WithReservationWindow sets the half-open window [start, end).
func WithReservationWindow(start, end time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.Start = start
		f.End = end
	}
}

// Application returns the fixture as an application.Reservation value.
func (f ReservationFixture) Application() application.Reservation {
	return application.Reservation{ID: f.ID, DeviceID: f.DeviceID, UserID: f.UserID, Start: f.Start, End: f.End}
}

// Persistence returns the fixture as a persistence.Reservation value.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{ID: f.ID, DeviceID: f.DeviceID, UserID: f.UserID, Start: f.Start, End: f.End}
}

// Input returns the fixture as application.ReservationInput.
func (f ReservationFixture) Input() application.ReservationInput {
	return application.ReservationInput{DeviceID: f.DeviceID, UserID: f.UserID, Start: f.Start, End: f.End}
}

// -------------------------- Maintenance fixtures --------------------------

// MaintenanceFixture represents the maintenance schedule of one device.
type MaintenanceFixture struct {
	DeviceID         string
	FirstMaintenance *time.Time
	IntervalDays     int
	Cost             decimal.Decimal
	EndOfLife        *time.Time
}

// MaintenanceOption configures the generated maintenance fixture.
type MaintenanceOption func(*MaintenanceFixture)

// NewMaintenanceFixture returns a 30 day schedule for deviceID starting on
// the day of ReferenceTime and costing 100.
func NewMaintenanceFixture(deviceID string, opts ...MaintenanceOption) MaintenanceFixture {
	first := Date(referenceTime.Year(), referenceTime.Month(), referenceTime.Day())
	fixture := MaintenanceFixture{
		DeviceID:         deviceID,
		FirstMaintenance: &first,
		IntervalDays:     30,
		Cost:             decimal.NewFromInt(100),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithFirstMaintenance sets the first maintenance date. Nil clears it.
func WithFirstMaintenance(first *time.Time) MaintenanceOption {
	return func(f *MaintenanceFixture) {
		f.FirstMaintenance = first
	}
}

// WithInterval sets the interval in days.
func WithInterval(days int) MaintenanceOption {
	return func(f *MaintenanceFixture) {
		f.IntervalDays = days
	}
}

// WithCost sets the cost per maintenance from a decimal string. It panics on
// malformed input.
func WithCost(cost string) MaintenanceOption {
	return func(f *MaintenanceFixture) {
		f.Cost = decimal.RequireFromString(cost)
	}
}

// WithEndOfLife sets the end-of-life date.
func WithEndOfLife(eol time.Time) MaintenanceOption {
	return func(f *MaintenanceFixture) {
		f.EndOfLife = &eol
	}
}

// Application returns the fixture as an application.MaintenanceRecord value.
func (f MaintenanceFixture) Application() application.MaintenanceRecord {
	return application.MaintenanceRecord{
		ID:               f.DeviceID,
		DeviceID:         f.DeviceID,
		FirstMaintenance: f.FirstMaintenance,
		IntervalDays:     f.IntervalDays,
		Cost:             f.Cost,
		EndOfLife:        f.EndOfLife,
	}
}

// Persistence returns the fixture as a persistence.MaintenanceRecord value.
func (f MaintenanceFixture) Persistence() persistence.MaintenanceRecord {
	return persistence.MaintenanceRecord{
		ID:               f.DeviceID,
		DeviceID:         f.DeviceID,
		FirstMaintenance: f.FirstMaintenance,
		IntervalDays:     f.IntervalDays,
		Cost:             f.Cost,
		EndOfLife:        f.EndOfLife,
	}
}

// Input returns the fixture as application.MaintenanceInput.
func (f MaintenanceFixture) Input() application.MaintenanceInput {
	return application.MaintenanceInput{
		FirstMaintenance: f.FirstMaintenance,
		IntervalDays:     f.IntervalDays,
		Cost:             f.Cost,
		EndOfLife:        f.EndOfLife,
	}
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
