// Package jsonstore keeps every record in a single JSON document on disk.
//
// Each operation reads the whole document, applies its change and replaces
// the file. Writes go to a temporary file in the same directory that is then
// renamed over the target, so readers never observe a truncated document.
package jsonstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/example/device-scheduler/internal/persistence"
)

// Store implements persistence.Store on top of a JSON file.
type Store struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
}

var _ persistence.Store = (*Store)(nil)

// Open returns a Store backed by path. The file does not have to exist; a
// missing file reads as an empty document. Dates and instants are interpreted
// in loc, or UTC when loc is nil.
func Open(path string, loc *time.Location) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonstore: path is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "jsonstore: create directory %s", dir)
		}
	}
	return &Store{path: path, loc: loc}, nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Close is a no-op; the file is only held open during an operation.
func (s *Store) Close() error {
	return nil
}

// Ping reports whether the document can be read and decoded.
func (s *Store) Ping(ctx context.Context) error {
	return s.view(ctx, func(*document) error { return nil })
}

func (s *Store) view(ctx context.Context, fn func(doc *document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	return fn(doc)
}

func (s *Store) update(ctx context.Context, fn func(doc *document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return emptyDocument(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "jsonstore: read %s", s.path)
	}
	if len(data) == 0 {
		return emptyDocument(), nil
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrapf(err, "jsonstore: decode %s", s.path)
	}
	doc.normalize()
	return doc, nil
}

func (s *Store) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "jsonstore: encode document")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "jsonstore: create temporary file")
	}
	tmpName := tmp.Name()
	defer func() {
		// Only present when the rename below did not happen.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "jsonstore: write temporary file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "jsonstore: sync temporary file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "jsonstore: close temporary file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrapf(err, "jsonstore: replace %s", s.path)
	}
	return nil
}

// --- UserRepository implementation ---

// CreateUser stores a new user.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) error {
	return s.update(ctx, func(doc *document) error {
		if _, ok := doc.Users[user.ID]; ok {
			return errors.Wrapf(persistence.ErrDuplicate, "user %s", user.ID)
		}
		doc.Users[user.ID] = userDoc{Name: user.Name}
		return nil
	})
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (persistence.User, error) {
	var user persistence.User
	err := s.view(ctx, func(doc *document) error {
		u, ok := doc.Users[id]
		if !ok {
			return errors.Wrapf(persistence.ErrNotFound, "user %s", id)
		}
		user = persistence.User{ID: id, Name: u.Name}
		return nil
	})
	return user, err
}

// ListUsers returns all users ordered by ID.
func (s *Store) ListUsers(ctx context.Context) ([]persistence.User, error) {
	var users []persistence.User
	err := s.view(ctx, func(doc *document) error {
		users = make([]persistence.User, 0, len(doc.Users))
		for id, u := range doc.Users {
			users = append(users, persistence.User{ID: id, Name: u.Name})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// DeleteUser removes a user by ID. Devices and reservations referencing the
// user are left untouched.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.update(ctx, func(doc *document) error {
		if _, ok := doc.Users[id]; !ok {
			return errors.Wrapf(persistence.ErrNotFound, "user %s", id)
		}
		delete(doc.Users, id)
		return nil
	})
}

// --- DeviceRepository implementation ---

// CreateDevice stores a new device.
func (s *Store) CreateDevice(ctx context.Context, device persistence.Device) error {
	return s.update(ctx, func(doc *document) error {
		if _, ok := doc.Devices[device.ID]; ok {
			return errors.Wrapf(persistence.ErrDuplicate, "device %s", device.ID)
		}
		doc.Devices[device.ID] = toDeviceDoc(device)
		return nil
	})
}

// GetDevice retrieves a device by ID.
func (s *Store) GetDevice(ctx context.Context, id string) (persistence.Device, error) {
	var device persistence.Device
	err := s.view(ctx, func(doc *document) error {
		d, ok := doc.Devices[id]
		if !ok {
			return errors.Wrapf(persistence.ErrNotFound, "device %s", id)
		}
		device = d.toModel(id)
		return nil
	})
	return device, err
}

// UpdateDevice replaces an existing device.
func (s *Store) UpdateDevice(ctx context.Context, device persistence.Device) error {
	return s.update(ctx, func(doc *document) error {
		if _, ok := doc.Devices[device.ID]; !ok {
			return errors.Wrapf(persistence.ErrNotFound, "device %s", device.ID)
		}
		doc.Devices[device.ID] = toDeviceDoc(device)
		return nil
	})
}

// ListDevices returns all devices ordered by ID.
func (s *Store) ListDevices(ctx context.Context) ([]persistence.Device, error) {
	var devices []persistence.Device
	err := s.view(ctx, func(doc *document) error {
		devices = make([]persistence.Device, 0, len(doc.Devices))
		for id, d := range doc.Devices {
			devices = append(devices, d.toModel(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices, nil
}

// DeleteDevice removes a device by ID. Reservations and the maintenance record
// of the device are kept.
func (s *Store) DeleteDevice(ctx context.Context, id string) error {
	return s.update(ctx, func(doc *document) error {
		if _, ok := doc.Devices[id]; !ok {
			return errors.Wrapf(persistence.ErrNotFound, "device %s", id)
		}
		delete(doc.Devices, id)
		return nil
	})
}

func toDeviceDoc(d persistence.Device) deviceDoc {
	return deviceDoc{
		DeviceName:      d.Name,
		ManagedByUserID: d.ManagedByUserID,
		IsActive:        d.IsActive,
	}
}

func (d deviceDoc) toModel(id string) persistence.Device {
	return persistence.Device{
		ID:              id,
		Name:            d.DeviceName,
		ManagedByUserID: d.ManagedByUserID,
		IsActive:        d.IsActive,
	}
}

// --- ReservationRepository implementation ---

// ListReservations returns every reservation in insertion order.
func (s *Store) ListReservations(ctx context.Context) ([]persistence.Reservation, error) {
	return s.listReservations(ctx, func(reservationDoc) bool { return true })
}

// ListReservationsForDevice returns the reservations of one device in
// insertion order.
func (s *Store) ListReservationsForDevice(ctx context.Context, deviceID string) ([]persistence.Reservation, error) {
	return s.listReservations(ctx, func(r reservationDoc) bool { return r.DeviceID == deviceID })
}

func (s *Store) listReservations(ctx context.Context, keep func(reservationDoc) bool) ([]persistence.Reservation, error) {
	var reservations []persistence.Reservation
	err := s.view(ctx, func(doc *document) error {
		reservations = make([]persistence.Reservation, 0, len(doc.Reservations))
		for _, r := range doc.Reservations {
			if !keep(r) {
				continue
			}
			model, err := r.toModel(s.loc)
			if err != nil {
				return errors.Wrap(err, "jsonstore")
			}
			reservations = append(reservations, model)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// AppendReservation adds a reservation to the end of the list.
func (s *Store) AppendReservation(ctx context.Context, reservation persistence.Reservation) error {
	return s.update(ctx, func(doc *document) error {
		for _, r := range doc.Reservations {
			if r.ID == reservation.ID {
				return errors.Wrapf(persistence.ErrDuplicate, "reservation %s", reservation.ID)
			}
		}
		doc.Reservations = append(doc.Reservations, toReservationDoc(reservation, s.loc))
		return nil
	})
}

// --- MaintenanceRepository implementation ---

// GetOrCreateMaintenance returns the record of deviceID, appending an empty
// record first when none exists.
func (s *Store) GetOrCreateMaintenance(ctx context.Context, deviceID string) (persistence.MaintenanceRecord, error) {
	var record persistence.MaintenanceRecord
	err := s.update(ctx, func(doc *document) error {
		if idx := doc.maintenanceIndex(deviceID); idx >= 0 {
			model, err := doc.Maintenance[idx].toModel(s.loc)
			if err != nil {
				return errors.Wrap(err, "jsonstore")
			}
			record = model
			return nil
		}
		record = persistence.MaintenanceRecord{ID: deviceID, DeviceID: deviceID, Cost: decimal.Zero}
		doc.Maintenance = append(doc.Maintenance, toMaintenanceDoc(record, s.loc))
		return nil
	})
	return record, err
}

// SaveMaintenance replaces the record of record.DeviceID, appending it when
// the device has none yet.
func (s *Store) SaveMaintenance(ctx context.Context, record persistence.MaintenanceRecord) error {
	if record.DeviceID == "" {
		record.DeviceID = record.ID
	}
	record.ID = record.DeviceID
	return s.update(ctx, func(doc *document) error {
		entry := toMaintenanceDoc(record, s.loc)
		if idx := doc.maintenanceIndex(record.DeviceID); idx >= 0 {
			doc.Maintenance[idx] = entry
			return nil
		}
		doc.Maintenance = append(doc.Maintenance, entry)
		return nil
	})
}

// ListMaintenance returns every maintenance record in insertion order.
func (s *Store) ListMaintenance(ctx context.Context) ([]persistence.MaintenanceRecord, error) {
	var records []persistence.MaintenanceRecord
	err := s.view(ctx, func(doc *document) error {
		records = make([]persistence.MaintenanceRecord, 0, len(doc.Maintenance))
		for _, m := range doc.Maintenance {
			model, err := m.toModel(s.loc)
			if err != nil {
				return errors.Wrap(err, "jsonstore")
			}
			records = append(records, model)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
