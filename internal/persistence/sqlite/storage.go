// Package sqlite implements the record store on SQLite through the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/example/device-scheduler/internal/persistence"
	"github.com/example/device-scheduler/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const dateLayout = "2006-01-02"

// Storage implements persistence.Store backed by a SQLite database.
type Storage struct {
	db     *sql.DB
	loc    *time.Location
	logger *slog.Logger
}

var _ persistence.Store = (*Storage)(nil)

// Option customises a Storage.
type Option func(*Storage)

// WithLocation sets the zone that reservation instants and maintenance dates
// are returned in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Storage) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger used for migration progress.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open connects to the database described by cfg. Call Migrate before use.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Storage, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &Storage{db: db, loc: time.UTC, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies the embedded schema migrations that are not yet recorded.
func (s *Storage) Migrate(ctx context.Context) error {
	migrations, err := migration.Load(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	runner := migration.NewRunner(migration.NewSQLiteExecutor(s.db), s.logger)
	if _, err := runner.Run(ctx, migrations); err != nil {
		return errors.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// --- UserRepository implementation ---

// CreateUser stores a new user.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, name) VALUES (?, ?)`, user.ID, user.Name)
	return mapError(err, "create user %s", user.ID)
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	var user persistence.User
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM users WHERE id = ?`, id).Scan(&user.ID, &user.Name)
	if err != nil {
		return persistence.User{}, mapError(err, "get user %s", id)
	}
	return user, nil
}

// ListUsers returns all users ordered by ID.
func (s *Storage) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM users ORDER BY id`)
	if err != nil {
		return nil, mapError(err, "list users")
	}
	defer rows.Close()

	users := make([]persistence.User, 0)
	for rows.Next() {
		var user persistence.User
		if err := rows.Scan(&user.ID, &user.Name); err != nil {
			return nil, mapError(err, "scan user")
		}
		users = append(users, user)
	}
	return users, mapError(rows.Err(), "list users")
}

// DeleteUser removes a user by ID.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return mapError(err, "delete user %s", id)
	}
	return requireAffected(result, "user %s", id)
}

// --- DeviceRepository implementation ---

// CreateDevice stores a new device.
func (s *Storage) CreateDevice(ctx context.Context, device persistence.Device) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO devices (id, name, managed_by_user_id, is_active) VALUES (?, ?, ?, ?)`,
		device.ID, device.Name, device.ManagedByUserID, device.IsActive,
	)
	return mapError(err, "create device %s", device.ID)
}

// GetDevice retrieves a device by ID.
func (s *Storage) GetDevice(ctx context.Context, id string) (persistence.Device, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, managed_by_user_id, is_active FROM devices WHERE id = ?`, id)
	device, err := scanDevice(row)
	if err != nil {
		return persistence.Device{}, mapError(err, "get device %s", id)
	}
	return device, nil
}

// UpdateDevice replaces an existing device.
func (s *Storage) UpdateDevice(ctx context.Context, device persistence.Device) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE devices SET name = ?, managed_by_user_id = ?, is_active = ? WHERE id = ?`,
		device.Name, device.ManagedByUserID, device.IsActive, device.ID,
	)
	if err != nil {
		return mapError(err, "update device %s", device.ID)
	}
	return requireAffected(result, "device %s", device.ID)
}

// ListDevices returns all devices ordered by ID.
func (s *Storage) ListDevices(ctx context.Context) ([]persistence.Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, managed_by_user_id, is_active FROM devices ORDER BY id`)
	if err != nil {
		return nil, mapError(err, "list devices")
	}
	defer rows.Close()

	devices := make([]persistence.Device, 0)
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, mapError(err, "scan device")
		}
		devices = append(devices, device)
	}
	return devices, mapError(rows.Err(), "list devices")
}

// DeleteDevice removes a device by ID. Its reservations and maintenance
// record are kept.
func (s *Storage) DeleteDevice(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return mapError(err, "delete device %s", id)
	}
	return requireAffected(result, "device %s", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (persistence.Device, error) {
	var device persistence.Device
	err := row.Scan(&device.ID, &device.Name, &device.ManagedByUserID, &device.IsActive)
	return device, err
}

// --- ReservationRepository implementation ---

// ListReservations returns every reservation in insertion order.
func (s *Storage) ListReservations(ctx context.Context) ([]persistence.Reservation, error) {
	return s.queryReservations(ctx,
		`SELECT id, device_id, user_id, start_at, end_at FROM reservations ORDER BY rowid`)
}

// ListReservationsForDevice returns the reservations of one device in
// insertion order.
func (s *Storage) ListReservationsForDevice(ctx context.Context, deviceID string) ([]persistence.Reservation, error) {
	return s.queryReservations(ctx,
		`SELECT id, device_id, user_id, start_at, end_at FROM reservations WHERE device_id = ? ORDER BY rowid`, deviceID)
}

func (s *Storage) queryReservations(ctx context.Context, query string, args ...any) ([]persistence.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list reservations")
	}
	defer rows.Close()

	reservations := make([]persistence.Reservation, 0)
	for rows.Next() {
		var (
			r          persistence.Reservation
			start, end string
		)
		if err := rows.Scan(&r.ID, &r.DeviceID, &r.UserID, &start, &end); err != nil {
			return nil, mapError(err, "scan reservation")
		}
		if r.Start, err = s.parseInstant(start); err != nil {
			return nil, errors.Wrapf(err, "sqlite: reservation %s start", r.ID)
		}
		if r.End, err = s.parseInstant(end); err != nil {
			return nil, errors.Wrapf(err, "sqlite: reservation %s end", r.ID)
		}
		reservations = append(reservations, r)
	}
	return reservations, mapError(rows.Err(), "list reservations")
}

// AppendReservation inserts a reservation.
func (s *Storage) AppendReservation(ctx context.Context, r persistence.Reservation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reservations (id, device_id, user_id, start_at, end_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.DeviceID, r.UserID, formatInstant(r.Start), formatInstant(r.End),
	)
	return mapError(err, "append reservation %s", r.ID)
}

func formatInstant(t time.Time) string {
	return t.UTC().Truncate(time.Minute).Format(time.RFC3339)
}

func (s *Storage) parseInstant(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(s.loc), nil
}

// --- MaintenanceRepository implementation ---

const maintenanceColumns = `id, device_id, first_maintenance, interval_days, cost, end_of_life`

// GetOrCreateMaintenance returns the record of deviceID, inserting an empty
// record first when none exists.
func (s *Storage) GetOrCreateMaintenance(ctx context.Context, deviceID string) (persistence.MaintenanceRecord, error) {
	var record persistence.MaintenanceRecord
	err := withTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO maintenance_records (id, device_id, cost) VALUES (?, ?, '0') ON CONFLICT(device_id) DO NOTHING`,
			deviceID, deviceID,
		); err != nil {
			return mapError(err, "create maintenance %s", deviceID)
		}
		row := tx.QueryRowContext(ctx,
			`SELECT `+maintenanceColumns+` FROM maintenance_records WHERE device_id = ?`, deviceID)
		var err error
		record, err = s.scanMaintenance(row)
		return mapError(err, "get maintenance %s", deviceID)
	})
	return record, err
}

// SaveMaintenance inserts or replaces the record of record.DeviceID.
func (s *Storage) SaveMaintenance(ctx context.Context, record persistence.MaintenanceRecord) error {
	if record.DeviceID == "" {
		record.DeviceID = record.ID
	}
	record.ID = record.DeviceID

	var interval sql.NullInt64
	if record.IntervalDays > 0 {
		interval = sql.NullInt64{Int64: int64(record.IntervalDays), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO maintenance_records (`+maintenanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			first_maintenance = excluded.first_maintenance,
			interval_days = excluded.interval_days,
			cost = excluded.cost,
			end_of_life = excluded.end_of_life`,
		record.ID, record.DeviceID,
		s.formatDate(record.FirstMaintenance), interval, record.Cost,
		s.formatDate(record.EndOfLife),
	)
	return mapError(err, "save maintenance %s", record.DeviceID)
}

// ListMaintenance returns every maintenance record in insertion order.
func (s *Storage) ListMaintenance(ctx context.Context) ([]persistence.MaintenanceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+maintenanceColumns+` FROM maintenance_records ORDER BY rowid`)
	if err != nil {
		return nil, mapError(err, "list maintenance")
	}
	defer rows.Close()

	records := make([]persistence.MaintenanceRecord, 0)
	for rows.Next() {
		record, err := s.scanMaintenance(rows)
		if err != nil {
			return nil, mapError(err, "scan maintenance")
		}
		records = append(records, record)
	}
	return records, mapError(rows.Err(), "list maintenance")
}

func (s *Storage) scanMaintenance(row rowScanner) (persistence.MaintenanceRecord, error) {
	var (
		record           persistence.MaintenanceRecord
		first, endOfLife sql.NullString
		interval         sql.NullInt64
		cost             decimal.Decimal
	)
	if err := row.Scan(&record.ID, &record.DeviceID, &first, &interval, &cost, &endOfLife); err != nil {
		return persistence.MaintenanceRecord{}, err
	}
	var err error
	if record.FirstMaintenance, err = s.parseDate(first); err != nil {
		return persistence.MaintenanceRecord{}, errors.Wrapf(err, "maintenance %s first_maintenance", record.ID)
	}
	if record.EndOfLife, err = s.parseDate(endOfLife); err != nil {
		return persistence.MaintenanceRecord{}, errors.Wrapf(err, "maintenance %s end_of_life", record.ID)
	}
	if interval.Valid {
		record.IntervalDays = int(interval.Int64)
	}
	record.Cost = cost
	return record, nil
}

func (s *Storage) formatDate(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.In(s.loc).Format(dateLayout), Valid: true}
}

func (s *Storage) parseDate(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, value.String, s.loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func requireAffected(result sql.Result, format string, args ...any) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sqlite: rows affected")
	}
	if affected == 0 {
		return errors.Wrapf(persistence.ErrNotFound, format, args...)
	}
	return nil
}
