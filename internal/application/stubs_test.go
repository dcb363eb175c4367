package application

import (
	"context"
	"strconv"
	"time"
)

type userRepoStub struct {
	users     map[string]User
	created   User
	createErr error
	deleteErr error
	listErr   error
}

func newUserRepoStub(users ...User) *userRepoStub {
	stub := &userRepoStub{users: make(map[string]User)}
	for _, u := range users {
		stub.users[u.ID] = u
	}
	return stub
}

func (s *userRepoStub) CreateUser(ctx context.Context, user User) (User, error) {
	if s.createErr != nil {
		return User{}, s.createErr
	}
	s.created = user
	s.users[user.ID] = user
	return user, nil
}

func (s *userRepoStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *userRepoStub) DeleteUser(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *userRepoStub) ListUsers(ctx context.Context) ([]User, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

type deviceRepoStub struct {
	devices map[string]Device
	created Device
	updated Device
	err     error
}

func newDeviceRepoStub(devices ...Device) *deviceRepoStub {
	stub := &deviceRepoStub{devices: make(map[string]Device)}
	for _, d := range devices {
		stub.devices[d.ID] = d
	}
	return stub
}

func (s *deviceRepoStub) CreateDevice(ctx context.Context, device Device) (Device, error) {
	if s.err != nil {
		return Device{}, s.err
	}
	s.created = device
	s.devices[device.ID] = device
	return device, nil
}

func (s *deviceRepoStub) GetDevice(ctx context.Context, id string) (Device, error) {
	device, ok := s.devices[id]
	if !ok {
		return Device{}, ErrNotFound
	}
	return device, nil
}

func (s *deviceRepoStub) UpdateDevice(ctx context.Context, device Device) (Device, error) {
	if s.err != nil {
		return Device{}, s.err
	}
	if _, ok := s.devices[device.ID]; !ok {
		return Device{}, ErrNotFound
	}
	s.updated = device
	s.devices[device.ID] = device
	return device, nil
}

func (s *deviceRepoStub) DeleteDevice(ctx context.Context, id string) error {
	if _, ok := s.devices[id]; !ok {
		return ErrNotFound
	}
	delete(s.devices, id)
	return nil
}

func (s *deviceRepoStub) ListDevices(ctx context.Context) ([]Device, error) {
	out := make([]Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	return out, nil
}

type reservationRepoStub struct {
	reservations []Reservation
	appendErr    error
}

func (s *reservationRepoStub) ListReservations(ctx context.Context) ([]Reservation, error) {
	out := make([]Reservation, len(s.reservations))
	copy(out, s.reservations)
	return out, nil
}

func (s *reservationRepoStub) ListReservationsForDevice(ctx context.Context, deviceID string) ([]Reservation, error) {
	var out []Reservation
	for _, r := range s.reservations {
		if r.DeviceID == deviceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *reservationRepoStub) AppendReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	if s.appendErr != nil {
		return Reservation{}, s.appendErr
	}
	s.reservations = append(s.reservations, reservation)
	return reservation, nil
}

type maintenanceRepoStub struct {
	records []MaintenanceRecord
	saved   []MaintenanceRecord
	created int
}

func (s *maintenanceRepoStub) GetOrCreateMaintenance(ctx context.Context, deviceID string) (MaintenanceRecord, error) {
	for _, r := range s.records {
		if r.DeviceID == deviceID {
			return r, nil
		}
	}
	record := MaintenanceRecord{ID: deviceID, DeviceID: deviceID}
	s.records = append(s.records, record)
	s.created++
	return record, nil
}

func (s *maintenanceRepoStub) SaveMaintenance(ctx context.Context, record MaintenanceRecord) (MaintenanceRecord, error) {
	s.saved = append(s.saved, record)
	for i, r := range s.records {
		if r.DeviceID == record.DeviceID {
			s.records[i] = record
			return record, nil
		}
	}
	s.records = append(s.records, record)
	return record, nil
}

func (s *maintenanceRepoStub) ListMaintenance(ctx context.Context) ([]MaintenanceRecord, error) {
	out := make([]MaintenanceRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

var berlin = time.FixedZone("CET", 3600)

func berlinTime(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2024, month, day, hour, minute, 0, 0, berlin)
}
