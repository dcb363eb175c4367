package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/device-scheduler/internal/application"
)

type capturingDeviceRepo struct {
	created application.Device
}

func (c *capturingDeviceRepo) CreateDevice(ctx context.Context, device application.Device) (application.Device, error) {
	c.created = device
	return device, nil
}

func (c *capturingDeviceRepo) GetDevice(ctx context.Context, id string) (application.Device, error) {
	if c.created.ID == id {
		return c.created, nil
	}
	return application.Device{}, application.ErrNotFound
}

func (c *capturingDeviceRepo) UpdateDevice(ctx context.Context, device application.Device) (application.Device, error) {
	return device, nil
}

func (c *capturingDeviceRepo) DeleteDevice(ctx context.Context, id string) error {
	return nil
}

func (c *capturingDeviceRepo) ListDevices(ctx context.Context) ([]application.Device, error) {
	if c.created.ID == "" {
		return nil, nil
	}
	return []application.Device{c.created}, nil
}

type staticUsers struct{}

func (staticUsers) GetUser(ctx context.Context, id string) (application.User, error) {
	return application.User{ID: id, Name: id}, nil
}

func (staticUsers) ListUsers(ctx context.Context) ([]application.User, error) {
	return nil, nil
}

type reservationLog []application.Reservation

func (l *reservationLog) ListReservations(ctx context.Context) ([]application.Reservation, error) {
	return *l, nil
}

func (l *reservationLog) ListReservationsForDevice(ctx context.Context, deviceID string) ([]application.Reservation, error) {
	var out []application.Reservation
	for _, r := range *l {
		if r.DeviceID == deviceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *reservationLog) AppendReservation(ctx context.Context, r application.Reservation) (application.Reservation, error) {
	*l = append(*l, r)
	return r, nil
}

type singleRecord struct {
	record application.MaintenanceRecord
}

func (s *singleRecord) GetOrCreateMaintenance(ctx context.Context, deviceID string) (application.MaintenanceRecord, error) {
	return s.record, nil
}

func (s *singleRecord) SaveMaintenance(ctx context.Context, record application.MaintenanceRecord) (application.MaintenanceRecord, error) {
	s.record = record
	return record, nil
}

func (s *singleRecord) ListMaintenance(ctx context.Context) ([]application.MaintenanceRecord, error) {
	return []application.MaintenanceRecord{s.record}, nil
}

func TestServiceFactoryNewDeviceService(t *testing.T) {
	factory := NewServiceFactory()
	repo := &capturingDeviceRepo{}

	svc := factory.NewDeviceService(DeviceServiceDeps{Devices: repo, Users: staticUsers{}})
	fixture := NewDeviceFixture(WithDeviceManager("anna@example.com"))

	device, err := svc.AddDevice(context.Background(), fixture.Input())
	if err != nil {
		t.Fatalf("AddDevice returned error: %v", err)
	}

	if device.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", device.ID)
	}
	if repo.created.ID != device.ID {
		t.Fatalf("repository received unexpected ID: %q", repo.created.ID)
	}
}

func TestServiceFactoryNewMaintenanceServiceUsesClock(t *testing.T) {
	factory := NewServiceFactory()
	devices := &capturingDeviceRepo{created: NewDeviceFixture(WithDeviceID("scope")).Application()}
	records := &singleRecord{record: NewMaintenanceFixture("scope").Application()}

	svc := factory.NewMaintenanceService(MaintenanceServiceDeps{Records: records, Devices: devices})

	// The first date is midnight of the reference day, which already lies behind the clock.
	next, ok, err := svc.NextMaintenance(context.Background(), "scope")
	if err != nil || !ok {
		t.Fatalf("NextMaintenance = %v, %v, %v", next, ok, err)
	}
	if want := Date(2024, time.February, 1); !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}

	factory.Clock.Set(time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC))
	next, _, _ = svc.NextMaintenance(context.Background(), "scope")
	if want := Date(2024, time.March, 2); !next.Equal(want) {
		t.Fatalf("expected %v after advancing the clock, got %v", want, next)
	}
}

func TestServiceFactoryNewReservationService(t *testing.T) {
	factory := NewServiceFactory(WithIDGenerator(NewUUIDGenerator("reservation")))
	devices := &capturingDeviceRepo{created: NewDeviceFixture(WithDeviceID("scope")).Application()}
	log := &reservationLog{}

	svc := factory.NewReservationService(ReservationServiceDeps{Reservations: log, Devices: devices, Users: staticUsers{}})
	fixture := NewReservationFixture(WithReservationDevice("scope"), WithReservationUser("anna@example.com"))

	first, err := svc.CreateReservation(context.Background(), fixture.Input())
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if want := NewUUIDGenerator("reservation").Next(); first.ID != want {
		t.Fatalf("expected deterministic id %q, got %q", want, first.ID)
	}

	if _, err := svc.CreateReservation(context.Background(), fixture.Input()); !errors.Is(err, application.ErrDeviceUnavailable) {
		t.Fatalf("expected the same window to conflict, got %v", err)
	}
}
