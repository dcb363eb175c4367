package wiring

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/example/device-scheduler/internal/application"
	"github.com/example/device-scheduler/internal/config"
	httptransport "github.com/example/device-scheduler/internal/http"
	"github.com/example/device-scheduler/internal/maintenance"
	"github.com/example/device-scheduler/internal/persistence"
	"github.com/example/device-scheduler/internal/persistence/jsonstore"
	"github.com/example/device-scheduler/internal/persistence/sqlite"
)

// Store is a persistence backend that can report its health.
type Store interface {
	persistence.Store
	Ping(ctx context.Context) error
}

// OpenStore opens the backend selected by cfg.StoreDriver. SQLite databases
// are migrated before they are returned.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.StoreDriver {
	case config.DriverJSON, "":
		store, err := jsonstore.Open(cfg.DataFile, cfg.Location)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "using json store", "path", store.Path())
		return store, nil
	case config.DriverSQLite:
		storage, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLiteDSN),
			sqlite.WithLocation(cfg.Location),
			sqlite.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		if err := storage.Migrate(ctx); err != nil {
			_ = storage.Close()
			return nil, err
		}
		logger.InfoContext(ctx, "using sqlite store", "dsn", cfg.SQLiteDSN)
		return storage, nil
	default:
		return nil, errors.Newf("wiring: unknown store driver %q", cfg.StoreDriver)
	}
}

// Options tunes the services built by NewServices. Zero values fall back to
// UTC, random UUIDs and the wall clock.
type Options struct {
	Location            *time.Location
	CostHonorsEndOfLife bool
	IDGenerator         func() string
	Now                 func() time.Time
	Logger              *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.IDGenerator == nil {
		o.IDGenerator = uuid.NewString
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Services bundles the application services sharing one store.
type Services struct {
	Users        *application.UserService
	Devices      *application.DeviceService
	Reservations *application.ReservationService
	Maintenance  *application.MaintenanceService
}

// NewServices builds every application service on top of store.
func NewServices(store persistence.Store, opts Options) Services {
	opts = opts.withDefaults()

	users := newUserRepositoryAdapter(store)
	devices := newDeviceRepositoryAdapter(store)
	reservations := newReservationRepositoryAdapter(store)
	records := newMaintenanceRepositoryAdapter(store)
	projector := maintenance.NewProjector(opts.Location, maintenance.WithEndOfLifeCostClipping(opts.CostHonorsEndOfLife))

	return Services{
		Users:        application.NewUserServiceWithLogger(users, opts.Logger),
		Devices:      application.NewDeviceServiceWithLogger(devices, users, opts.IDGenerator, opts.Logger),
		Reservations: application.NewReservationServiceWithLogger(reservations, devices, users, opts.IDGenerator, opts.Logger),
		Maintenance:  application.NewMaintenanceServiceWithLogger(records, devices, projector, opts.Now, opts.Logger),
	}
}

// NewHandler exposes services over HTTP with request logging and panic
// recovery. health may be nil.
func NewHandler(services Services, health httptransport.HealthChecker, opts Options) http.Handler {
	opts = opts.withDefaults()
	logger := opts.Logger

	return httptransport.NewRouter(httptransport.RouterConfig{
		Users:        httptransport.NewUserHandler(services.Users, logger),
		Devices:      httptransport.NewDeviceHandler(services.Devices, logger),
		Reservations: httptransport.NewReservationHandler(services.Reservations, opts.Location, logger),
		Maintenance:  httptransport.NewMaintenanceHandler(services.Maintenance, opts.Location, opts.Now, logger),
		Health:       health,
		Logger:       logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Recoverer(logger),
		},
	})
}
