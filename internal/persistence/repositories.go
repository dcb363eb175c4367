package persistence

import "context"

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// DeviceRepository exposes CRUD operations for devices.
type DeviceRepository interface {
	CreateDevice(ctx context.Context, device Device) error
	GetDevice(ctx context.Context, id string) (Device, error)
	UpdateDevice(ctx context.Context, device Device) error
	ListDevices(ctx context.Context) ([]Device, error)
	DeleteDevice(ctx context.Context, id string) error
}

// ReservationRepository stores reservations. Reservations are append-only.
type ReservationRepository interface {
	ListReservations(ctx context.Context) ([]Reservation, error)
	ListReservationsForDevice(ctx context.Context, deviceID string) ([]Reservation, error)
	AppendReservation(ctx context.Context, reservation Reservation) error
}

// MaintenanceRepository stores one maintenance record per device.
type MaintenanceRepository interface {
	// GetOrCreateMaintenance returns the record of deviceID, persisting an
	// empty one first when none exists yet.
	GetOrCreateMaintenance(ctx context.Context, deviceID string) (MaintenanceRecord, error)
	SaveMaintenance(ctx context.Context, record MaintenanceRecord) error
	ListMaintenance(ctx context.Context) ([]MaintenanceRecord, error)
}

// Store bundles every repository a backend provides.
type Store interface {
	UserRepository
	DeviceRepository
	ReservationRepository
	MaintenanceRepository
	Close() error
}
