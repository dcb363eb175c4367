package jsonstore

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/example/device-scheduler/internal/persistence"
)

const (
	// MinuteLayout is the on-disk format of reservation instants.
	MinuteLayout = "2006-01-02T15:04"
	// DateLayout is the on-disk format of maintenance dates.
	DateLayout = "2006-01-02"
)

// document mirrors the file layout. Users and devices are keyed by id;
// reservations and maintenance records are lists in insertion order.
type document struct {
	Users        map[string]userDoc   `json:"users"`
	Devices      map[string]deviceDoc `json:"devices"`
	Reservations []reservationDoc     `json:"reservations"`
	Maintenance  []maintenanceDoc     `json:"maintenance"`
}

type userDoc struct {
	Name string `json:"name"`
}

type deviceDoc struct {
	DeviceName      string `json:"device_name"`
	ManagedByUserID string `json:"managed_by_user_id"`
	IsActive        bool   `json:"is_active"`
}

type reservationDoc struct {
	ID       string `json:"id"`
	DeviceID string `json:"device_id"`
	UserID   string `json:"user_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type maintenanceDoc struct {
	ID                      string      `json:"id"`
	DeviceID                string      `json:"device_id"`
	FirstMaintenance        *string     `json:"first_maintenance"`
	MaintenanceIntervalDays *int        `json:"maintenance_interval_days"`
	MaintenanceCost         json.Number `json:"maintenance_cost"`
	EndOfLife               *string     `json:"end_of_life"`
}

func emptyDocument() *document {
	return &document{
		Users:        map[string]userDoc{},
		Devices:      map[string]deviceDoc{},
		Reservations: []reservationDoc{},
		Maintenance:  []maintenanceDoc{},
	}
}

// normalize replaces missing sections so callers never see nil maps.
func (d *document) normalize() {
	if d.Users == nil {
		d.Users = map[string]userDoc{}
	}
	if d.Devices == nil {
		d.Devices = map[string]deviceDoc{}
	}
	if d.Reservations == nil {
		d.Reservations = []reservationDoc{}
	}
	if d.Maintenance == nil {
		d.Maintenance = []maintenanceDoc{}
	}
}

func (d *document) maintenanceIndex(deviceID string) int {
	for i, m := range d.Maintenance {
		if m.DeviceID == deviceID {
			return i
		}
	}
	return -1
}

func toReservationDoc(r persistence.Reservation, loc *time.Location) reservationDoc {
	return reservationDoc{
		ID:       r.ID,
		DeviceID: r.DeviceID,
		UserID:   r.UserID,
		Start:    r.Start.In(loc).Format(MinuteLayout),
		End:      r.End.In(loc).Format(MinuteLayout),
	}
}

func (r reservationDoc) toModel(loc *time.Location) (persistence.Reservation, error) {
	start, err := parseInstant(r.Start, loc)
	if err != nil {
		return persistence.Reservation{}, errors.Wrapf(err, "reservation %s: start", r.ID)
	}
	end, err := parseInstant(r.End, loc)
	if err != nil {
		return persistence.Reservation{}, errors.Wrapf(err, "reservation %s: end", r.ID)
	}
	return persistence.Reservation{
		ID:       r.ID,
		DeviceID: r.DeviceID,
		UserID:   r.UserID,
		Start:    start,
		End:      end,
	}, nil
}

func toMaintenanceDoc(m persistence.MaintenanceRecord, loc *time.Location) maintenanceDoc {
	doc := maintenanceDoc{
		ID:               m.ID,
		DeviceID:         m.DeviceID,
		FirstMaintenance: formatDate(m.FirstMaintenance, loc),
		MaintenanceCost:  json.Number(m.Cost.String()),
		EndOfLife:        formatDate(m.EndOfLife, loc),
	}
	if m.IntervalDays > 0 {
		interval := m.IntervalDays
		doc.MaintenanceIntervalDays = &interval
	}
	return doc
}

func (m maintenanceDoc) toModel(loc *time.Location) (persistence.MaintenanceRecord, error) {
	first, err := parseDate(m.FirstMaintenance, loc)
	if err != nil {
		return persistence.MaintenanceRecord{}, errors.Wrapf(err, "maintenance %s: first_maintenance", m.ID)
	}
	endOfLife, err := parseDate(m.EndOfLife, loc)
	if err != nil {
		return persistence.MaintenanceRecord{}, errors.Wrapf(err, "maintenance %s: end_of_life", m.ID)
	}
	cost := decimal.Zero
	if m.MaintenanceCost != "" {
		cost, err = decimal.NewFromString(m.MaintenanceCost.String())
		if err != nil {
			return persistence.MaintenanceRecord{}, errors.Wrapf(err, "maintenance %s: maintenance_cost", m.ID)
		}
	}
	record := persistence.MaintenanceRecord{
		ID:               m.ID,
		DeviceID:         m.DeviceID,
		FirstMaintenance: first,
		Cost:             cost,
		EndOfLife:        endOfLife,
	}
	if m.MaintenanceIntervalDays != nil {
		record.IntervalDays = *m.MaintenanceIntervalDays
	}
	return record, nil
}

func formatDate(t *time.Time, loc *time.Location) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.In(loc).Format(DateLayout)
	return &s
}

func parseDate(s *string, loc *time.Location) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(*s), loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseInstant accepts the minute layout and, for files written by older
// tools, a layout with seconds. The result is truncated to the minute.
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.ParseInLocation(MinuteLayout, s, loc)
	if err == nil {
		return t, nil
	}
	if withSeconds, secErr := time.ParseInLocation("2006-01-02T15:04:05", s, loc); secErr == nil {
		return withSeconds.Truncate(time.Minute), nil
	}
	return time.Time{}, err
}
