package application

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/device-scheduler/internal/scheduler"
)

// ReservationRepository captures the persistence operations needed by the
// reservation service. Reservations are append-only.
type ReservationRepository interface {
	ListReservations(ctx context.Context) ([]Reservation, error)
	ListReservationsForDevice(ctx context.Context, deviceID string) ([]Reservation, error)
	AppendReservation(ctx context.Context, reservation Reservation) (Reservation, error)
}

// DeviceCatalog resolves device references.
type DeviceCatalog interface {
	GetDevice(ctx context.Context, id string) (Device, error)
	ListDevices(ctx context.Context) ([]Device, error)
}

// UserCatalog resolves user references.
type UserCatalog interface {
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// ReservationService checks availability and books devices.
type ReservationService struct {
	reservations ReservationRepository
	devices      DeviceCatalog
	users        UserCatalog
	idGenerator  func() string
	logger       *slog.Logger
}

// NewReservationService constructs a reservation service with the provided dependencies.
func NewReservationService(reservations ReservationRepository, devices DeviceCatalog, users UserCatalog, idGenerator func() string) *ReservationService {
	return NewReservationServiceWithLogger(reservations, devices, users, idGenerator, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a specified logger.
func NewReservationServiceWithLogger(reservations ReservationRepository, devices DeviceCatalog, users UserCatalog, idGenerator func() string, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &ReservationService{
		reservations: reservations,
		devices:      devices,
		users:        users,
		idGenerator:  idGenerator,
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CheckAvailability reports whether the device is free for [start, end) and
// lists the reservations that block it otherwise.
func (s *ReservationService) CheckAvailability(ctx context.Context, deviceID string, start, end time.Time) (Availability, error) {
	if s == nil {
		return Availability{}, errors.New("ReservationService is nil")
	}
	start, end = start.Truncate(time.Minute), end.Truncate(time.Minute)
	if err := scheduler.ValidateWindow(start, end); err != nil {
		return Availability{}, err
	}
	if err := s.requireDevice(ctx, deviceID); err != nil {
		return Availability{}, err
	}

	existing, err := s.deviceReservations(ctx, deviceID)
	if err != nil {
		return Availability{}, err
	}

	conflicts := scheduler.DetectConflicts(existing, scheduler.Reservation{DeviceID: deviceID, Start: start, End: end})
	return Availability{
		DeviceID:  deviceID,
		Start:     start,
		End:       end,
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

// CreateReservation books a device. The window is truncated to the minute and
// must not overlap any stored reservation of the same device.
func (s *ReservationService) CreateReservation(ctx context.Context, input ReservationInput) (reservation Reservation, err error) {
	if s == nil {
		err = errors.New("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = errors.New("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateReservation",
		"device_id", input.DeviceID,
		"user_id", input.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", failureAttrs(err)...)
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
	}()

	start, end := input.Start.Truncate(time.Minute), input.End.Truncate(time.Minute)
	if err = scheduler.ValidateWindow(start, end); err != nil {
		return
	}
	if err = s.requireDevice(ctx, input.DeviceID); err != nil {
		return
	}
	if err = s.requireUser(ctx, input.UserID); err != nil {
		return
	}

	var existing []scheduler.Reservation
	existing, err = s.deviceReservations(ctx, input.DeviceID)
	if err != nil {
		return
	}

	candidate, createErr := scheduler.CreateReservation(input.DeviceID, input.UserID, start, end, existing, s.idGenerator)
	if createErr != nil {
		if errors.Is(createErr, scheduler.ErrDeviceUnavailable) {
			err = &ConflictError{
				DeviceID:  input.DeviceID,
				Conflicts: scheduler.DetectConflicts(existing, scheduler.Reservation{DeviceID: input.DeviceID, Start: start, End: end}),
			}
			return
		}
		err = createErr
		return
	}

	reservation, err = s.reservations.AppendReservation(ctx, Reservation{
		ID:       candidate.ID,
		DeviceID: candidate.DeviceID,
		UserID:   candidate.UserID,
		Start:    candidate.Start,
		End:      candidate.End,
	})
	err = mapRepoError(err)
	return
}

// ListReservations returns reservations joined with device and user names,
// ordered by start time.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) ([]ReservationView, error) {
	if s == nil {
		return nil, errors.New("ReservationService is nil")
	}
	if s.reservations == nil {
		return nil, nil
	}

	var (
		raw []Reservation
		err error
	)
	if params.DeviceID != "" {
		raw, err = s.reservations.ListReservationsForDevice(ctx, params.DeviceID)
	} else {
		raw, err = s.reservations.ListReservations(ctx)
	}
	if err != nil {
		return nil, mapRepoError(err)
	}

	deviceNames, err := s.deviceNames(ctx)
	if err != nil {
		return nil, err
	}
	userNames, err := s.userNames(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ReservationView, 0, len(raw))
	for _, r := range raw {
		view := ReservationView{Reservation: r, DeviceName: r.DeviceID, UserName: r.UserID}
		if name, ok := deviceNames[r.DeviceID]; ok {
			view.DeviceName = name
		}
		if name, ok := userNames[r.UserID]; ok {
			view.UserName = name
		}
		views = append(views, view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Start.Before(views[j].Start)
	})
	return views, nil
}

func (s *ReservationService) deviceReservations(ctx context.Context, deviceID string) ([]scheduler.Reservation, error) {
	if s.reservations == nil {
		return nil, nil
	}
	stored, err := s.reservations.ListReservationsForDevice(ctx, deviceID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	out := make([]scheduler.Reservation, 0, len(stored))
	for _, r := range stored {
		out = append(out, scheduler.Reservation{
			ID:       r.ID,
			DeviceID: r.DeviceID,
			UserID:   r.UserID,
			Start:    r.Start,
			End:      r.End,
		})
	}
	return out, nil
}

func (s *ReservationService) requireDevice(ctx context.Context, id string) error {
	if s.devices == nil {
		return nil
	}
	if _, err := s.devices.GetDevice(ctx, id); err != nil {
		return errors.Wrapf(mapRepoError(err), "device %s", id)
	}
	return nil
}

func (s *ReservationService) requireUser(ctx context.Context, id string) error {
	if s.users == nil {
		return nil
	}
	if _, err := s.users.GetUser(ctx, id); err != nil {
		return errors.Wrapf(mapRepoError(err), "user %s", id)
	}
	return nil
}

func (s *ReservationService) deviceNames(ctx context.Context) (map[string]string, error) {
	names := make(map[string]string)
	if s.devices == nil {
		return names, nil
	}
	devices, err := s.devices.ListDevices(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	for _, d := range devices {
		names[d.ID] = d.Name
	}
	return names, nil
}

func (s *ReservationService) userNames(ctx context.Context) (map[string]string, error) {
	names := make(map[string]string)
	if s.users == nil {
		return names, nil
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}
