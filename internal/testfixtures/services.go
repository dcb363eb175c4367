package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/device-scheduler/internal/application"
	"github.com/example/device-scheduler/internal/maintenance"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// UserServiceDeps captures dependencies for constructing a user service.
type UserServiceDeps struct {
	Users  application.UserRepository
	Logger *slog.Logger
}

// NewUserService builds a user service using the supplied dependencies.
func (f *ServiceFactory) NewUserService(deps UserServiceDeps) *application.UserService {
	return application.NewUserServiceWithLogger(deps.Users, deps.Logger)
}

// DeviceServiceDeps captures dependencies for constructing a device service.
type DeviceServiceDeps struct {
	Devices     application.DeviceRepository
	Users       application.UserDirectory
	IDGenerator func() string
	Logger      *slog.Logger
}

// NewDeviceService builds a device service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewDeviceService(deps DeviceServiceDeps) *application.DeviceService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	return application.NewDeviceServiceWithLogger(deps.Devices, deps.Users, idGen, deps.Logger)
}

// ReservationServiceDeps captures dependencies for constructing a reservation
// service.
type ReservationServiceDeps struct {
	Reservations application.ReservationRepository
	Devices      application.DeviceCatalog
	Users        application.UserCatalog
	IDGenerator  func() string
	Logger       *slog.Logger
}

// NewReservationService builds a reservation service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewReservationService(deps ReservationServiceDeps) *application.ReservationService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	return application.NewReservationServiceWithLogger(deps.Reservations, deps.Devices, deps.Users, idGen, deps.Logger)
}

// MaintenanceServiceDeps captures dependencies for constructing a maintenance
// service. A nil Projector projects in UTC.
type MaintenanceServiceDeps struct {
	Records   application.MaintenanceRepository
	Devices   application.DeviceCatalog
	Projector *maintenance.Projector
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewMaintenanceService builds a maintenance service driven by the factory
// clock unless deps.Now is set.
func (f *ServiceFactory) NewMaintenanceService(deps MaintenanceServiceDeps) *application.MaintenanceService {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewMaintenanceServiceWithLogger(deps.Records, deps.Devices, deps.Projector, now, deps.Logger)
}
