package application

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// DeviceRepository captures the persistence operations needed by the device service.
type DeviceRepository interface {
	CreateDevice(ctx context.Context, device Device) (Device, error)
	GetDevice(ctx context.Context, id string) (Device, error)
	UpdateDevice(ctx context.Context, device Device) (Device, error)
	DeleteDevice(ctx context.Context, id string) error
	ListDevices(ctx context.Context) ([]Device, error)
}

// UserDirectory resolves user references.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// DeviceService orchestrates validation and persistence for devices.
type DeviceService struct {
	devices     DeviceRepository
	users       UserDirectory
	idGenerator func() string
	logger      *slog.Logger
}

// NewDeviceService constructs a device service with the provided dependencies.
func NewDeviceService(devices DeviceRepository, users UserDirectory, idGenerator func() string) *DeviceService {
	return NewDeviceServiceWithLogger(devices, users, idGenerator, nil)
}

// NewDeviceServiceWithLogger constructs a device service with a specified logger.
func NewDeviceServiceWithLogger(devices DeviceRepository, users UserDirectory, idGenerator func() string, logger *slog.Logger) *DeviceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &DeviceService{devices: devices, users: users, idGenerator: idGenerator, logger: defaultLogger(logger)}
}

func (s *DeviceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DeviceService", operation, attrs...)
}

// AddDevice validates input and persists a new device with a generated id.
func (s *DeviceService) AddDevice(ctx context.Context, input DeviceInput) (device Device, err error) {
	if s == nil {
		err = errors.New("DeviceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AddDevice")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add device", failureAttrs(err)...)
			return
		}
		logger.With("device_id", device.ID).InfoContext(ctx, "device added")
	}()

	device = Device{
		ID:              s.idGenerator(),
		Name:            strings.TrimSpace(input.Name),
		ManagedByUserID: strings.TrimSpace(input.ManagedByUserID),
		IsActive:        true,
	}
	if input.IsActive != nil {
		device.IsActive = *input.IsActive
	}

	vErr := validateDeviceName(device.Name)
	ownerErr, err := s.validateOwner(ctx, device.ManagedByUserID)
	if err != nil {
		return Device{}, err
	}
	vErr.merge(ownerErr)
	if vErr.HasErrors() {
		err = vErr
		return Device{}, err
	}

	if s.devices == nil {
		return
	}

	device, err = s.devices.CreateDevice(ctx, device)
	err = mapRepoError(err)
	return
}

// UpdateDevice applies the non-nil fields of update to an existing device.
func (s *DeviceService) UpdateDevice(ctx context.Context, id string, update DeviceUpdate) (device Device, err error) {
	if s == nil {
		err = errors.New("DeviceService is nil")
		return
	}
	if s.devices == nil {
		err = errors.New("device repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateDevice", "device_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update device", failureAttrs(err)...)
			return
		}
		logger.InfoContext(ctx, "device updated")
	}()

	var existing Device
	existing, err = s.devices.GetDevice(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	updated := existing
	vErr := &ValidationError{}
	if update.Name != nil {
		updated.Name = strings.TrimSpace(*update.Name)
		vErr.merge(validateDeviceName(updated.Name))
	}
	if update.ManagedByUserID != nil {
		updated.ManagedByUserID = strings.TrimSpace(*update.ManagedByUserID)
		var ownerErr *ValidationError
		ownerErr, err = s.validateOwner(ctx, updated.ManagedByUserID)
		if err != nil {
			return
		}
		vErr.merge(ownerErr)
	}
	if update.IsActive != nil {
		updated.IsActive = *update.IsActive
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	device, err = s.devices.UpdateDevice(ctx, updated)
	err = mapRepoError(err)
	return
}

// SetActive toggles the active flag of a device.
func (s *DeviceService) SetActive(ctx context.Context, id string, active bool) (Device, error) {
	return s.UpdateDevice(ctx, id, DeviceUpdate{IsActive: &active})
}

// GetDevice returns a single device.
func (s *DeviceService) GetDevice(ctx context.Context, id string) (Device, error) {
	if s == nil {
		return Device{}, errors.New("DeviceService is nil")
	}
	if s.devices == nil {
		return Device{}, errors.New("device repository not configured")
	}
	device, err := s.devices.GetDevice(ctx, id)
	if err != nil {
		return Device{}, mapRepoError(err)
	}
	return device, nil
}

// ListDevices returns all devices ordered by name, then id.
func (s *DeviceService) ListDevices(ctx context.Context) ([]Device, error) {
	if s == nil {
		return nil, errors.New("DeviceService is nil")
	}
	if s.devices == nil {
		return nil, nil
	}

	raw, err := s.devices.ListDevices(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	devices := make([]Device, len(raw))
	copy(devices, raw)
	sort.Slice(devices, func(i, j int) bool {
		if strings.EqualFold(devices[i].Name, devices[j].Name) {
			return devices[i].ID < devices[j].ID
		}
		return strings.ToLower(devices[i].Name) < strings.ToLower(devices[j].Name)
	})
	return devices, nil
}

// DeleteDevice removes a device. Its reservations and maintenance record stay
// in the store.
func (s *DeviceService) DeleteDevice(ctx context.Context, id string) error {
	if s == nil {
		return errors.New("DeviceService is nil")
	}
	if s.devices == nil {
		return errors.New("device repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteDevice", "device_id", id)
	if err := s.devices.DeleteDevice(ctx, id); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete device", failureAttrs(err)...)
		return err
	}

	logger.InfoContext(ctx, "device deleted")
	return nil
}

// validateOwner returns a validation error when ownerID names an unknown user.
// An empty ownerID is valid.
func (s *DeviceService) validateOwner(ctx context.Context, ownerID string) (*ValidationError, error) {
	vErr := &ValidationError{}
	if ownerID == "" || s.users == nil {
		return vErr, nil
	}
	if _, err := s.users.GetUser(ctx, ownerID); err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			vErr.add("managed_by_user_id", "Verantwortlicher Benutzer existiert nicht.")
			return vErr, nil
		}
		return nil, err
	}
	return vErr, nil
}

func validateDeviceName(name string) *ValidationError {
	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "Gerätename fehlt.")
	}
	return vErr
}
