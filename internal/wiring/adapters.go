// Package wiring connects the persistence backends to the application
// services. Store methods that only report an error are adapted to the
// value-returning repository interfaces the services depend on.
package wiring

import (
	"context"
	"time"

	"github.com/example/device-scheduler/internal/application"
	"github.com/example/device-scheduler/internal/persistence"
)

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user)); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, user.ID)
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

type deviceRepositoryAdapter struct {
	repo persistence.DeviceRepository
}

func newDeviceRepositoryAdapter(repo persistence.DeviceRepository) *deviceRepositoryAdapter {
	return &deviceRepositoryAdapter{repo: repo}
}

func (a *deviceRepositoryAdapter) CreateDevice(ctx context.Context, device application.Device) (application.Device, error) {
	if err := a.repo.CreateDevice(ctx, toPersistenceDevice(device)); err != nil {
		return application.Device{}, err
	}
	return a.GetDevice(ctx, device.ID)
}

func (a *deviceRepositoryAdapter) GetDevice(ctx context.Context, id string) (application.Device, error) {
	stored, err := a.repo.GetDevice(ctx, id)
	if err != nil {
		return application.Device{}, err
	}
	return toApplicationDevice(stored), nil
}

func (a *deviceRepositoryAdapter) UpdateDevice(ctx context.Context, device application.Device) (application.Device, error) {
	if err := a.repo.UpdateDevice(ctx, toPersistenceDevice(device)); err != nil {
		return application.Device{}, err
	}
	return a.GetDevice(ctx, device.ID)
}

func (a *deviceRepositoryAdapter) DeleteDevice(ctx context.Context, id string) error {
	return a.repo.DeleteDevice(ctx, id)
}

func (a *deviceRepositoryAdapter) ListDevices(ctx context.Context) ([]application.Device, error) {
	models, err := a.repo.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	devices := make([]application.Device, 0, len(models))
	for _, model := range models {
		devices = append(devices, toApplicationDevice(model))
	}
	return devices, nil
}

type reservationRepositoryAdapter struct {
	repo persistence.ReservationRepository
}

func newReservationRepositoryAdapter(repo persistence.ReservationRepository) *reservationRepositoryAdapter {
	return &reservationRepositoryAdapter{repo: repo}
}

func (a *reservationRepositoryAdapter) ListReservations(ctx context.Context) ([]application.Reservation, error) {
	models, err := a.repo.ListReservations(ctx)
	if err != nil {
		return nil, err
	}
	return toApplicationReservations(models), nil
}

func (a *reservationRepositoryAdapter) ListReservationsForDevice(ctx context.Context, deviceID string) ([]application.Reservation, error) {
	models, err := a.repo.ListReservationsForDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return toApplicationReservations(models), nil
}

// AppendReservation returns the reservation as stored, which truncates the
// instants to whole minutes.
func (a *reservationRepositoryAdapter) AppendReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	model := toPersistenceReservation(reservation)
	if err := a.repo.AppendReservation(ctx, model); err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(model), nil
}

type maintenanceRepositoryAdapter struct {
	repo persistence.MaintenanceRepository
}

func newMaintenanceRepositoryAdapter(repo persistence.MaintenanceRepository) *maintenanceRepositoryAdapter {
	return &maintenanceRepositoryAdapter{repo: repo}
}

func (a *maintenanceRepositoryAdapter) GetOrCreateMaintenance(ctx context.Context, deviceID string) (application.MaintenanceRecord, error) {
	stored, err := a.repo.GetOrCreateMaintenance(ctx, deviceID)
	if err != nil {
		return application.MaintenanceRecord{}, err
	}
	return toApplicationMaintenance(stored), nil
}

func (a *maintenanceRepositoryAdapter) SaveMaintenance(ctx context.Context, record application.MaintenanceRecord) (application.MaintenanceRecord, error) {
	if err := a.repo.SaveMaintenance(ctx, toPersistenceMaintenance(record)); err != nil {
		return application.MaintenanceRecord{}, err
	}
	return record, nil
}

func (a *maintenanceRepositoryAdapter) ListMaintenance(ctx context.Context) ([]application.MaintenanceRecord, error) {
	models, err := a.repo.ListMaintenance(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	records := make([]application.MaintenanceRecord, 0, len(models))
	for _, model := range models {
		records = append(records, toApplicationMaintenance(model))
	}
	return records, nil
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User{ID: user.ID, Name: user.Name}
}

func toApplicationUser(user persistence.User) application.User {
	return application.User{ID: user.ID, Name: user.Name}
}

func toPersistenceDevice(device application.Device) persistence.Device {
	return persistence.Device{
		ID:              device.ID,
		Name:            device.Name,
		ManagedByUserID: device.ManagedByUserID,
		IsActive:        device.IsActive,
	}
}

func toApplicationDevice(device persistence.Device) application.Device {
	return application.Device{
		ID:              device.ID,
		Name:            device.Name,
		ManagedByUserID: device.ManagedByUserID,
		IsActive:        device.IsActive,
	}
}

func toPersistenceReservation(r application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:       r.ID,
		DeviceID: r.DeviceID,
		UserID:   r.UserID,
		Start:    r.Start.Truncate(time.Minute),
		End:      r.End.Truncate(time.Minute),
	}
}

func toApplicationReservation(r persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:       r.ID,
		DeviceID: r.DeviceID,
		UserID:   r.UserID,
		Start:    r.Start,
		End:      r.End,
	}
}

func toApplicationReservations(models []persistence.Reservation) []application.Reservation {
	if len(models) == 0 {
		return nil
	}
	reservations := make([]application.Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, toApplicationReservation(model))
	}
	return reservations
}

func toPersistenceMaintenance(record application.MaintenanceRecord) persistence.MaintenanceRecord {
	return persistence.MaintenanceRecord{
		ID:               record.DeviceID,
		DeviceID:         record.DeviceID,
		FirstMaintenance: record.FirstMaintenance,
		IntervalDays:     record.IntervalDays,
		Cost:             record.Cost,
		EndOfLife:        record.EndOfLife,
	}
}

func toApplicationMaintenance(record persistence.MaintenanceRecord) application.MaintenanceRecord {
	return application.MaintenanceRecord{
		ID:               record.ID,
		DeviceID:         record.DeviceID,
		FirstMaintenance: record.FirstMaintenance,
		IntervalDays:     record.IntervalDays,
		Cost:             record.Cost,
		EndOfLife:        record.EndOfLife,
	}
}
