package jsonstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/example/device-scheduler/internal/persistence"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "database.json"), time.UTC)
	require.NoError(t, err)
	return store
}

func TestStore_MissingFileReadsAsEmpty(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Empty(t, users)

	reservations, err := store.ListReservations(ctx)
	require.NoError(t, err)
	require.Empty(t, reservations)

	_, err = os.Stat(store.Path())
	require.True(t, errors.Is(err, os.ErrNotExist), "reads must not create the file")
}

func TestStore_WritesDocumentLayout(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, persistence.User{ID: "anna@example.com", Name: "Anna"}))
	require.NoError(t, store.CreateDevice(ctx, persistence.Device{ID: "dev-1", Name: "Oszilloskop", ManagedByUserID: "anna@example.com", IsActive: true}))
	require.NoError(t, store.AppendReservation(ctx, persistence.Reservation{
		ID:       "res-1",
		DeviceID: "dev-1",
		UserID:   "anna@example.com",
		Start:    time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC),
		End:      time.Date(2024, time.March, 4, 11, 30, 0, 0, time.UTC),
	}))
	first := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveMaintenance(ctx, persistence.MaintenanceRecord{
		ID:               "dev-1",
		DeviceID:         "dev-1",
		FirstMaintenance: &first,
		IntervalDays:     30,
		Cost:             decimal.RequireFromString("12.5"),
	}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	users := raw["users"].(map[string]any)
	require.Equal(t, map[string]any{"name": "Anna"}, users["anna@example.com"])

	devices := raw["devices"].(map[string]any)
	require.Equal(t, map[string]any{
		"device_name":        "Oszilloskop",
		"managed_by_user_id": "anna@example.com",
		"is_active":          true,
	}, devices["dev-1"])

	reservations := raw["reservations"].([]any)
	require.Len(t, reservations, 1)
	require.Equal(t, map[string]any{
		"id":        "res-1",
		"device_id": "dev-1",
		"user_id":   "anna@example.com",
		"start":     "2024-03-04T10:00",
		"end":       "2024-03-04T11:30",
	}, reservations[0])

	maintenance := raw["maintenance"].([]any)
	require.Len(t, maintenance, 1)
	require.Equal(t, map[string]any{
		"id":                        "dev-1",
		"device_id":                 "dev-1",
		"first_maintenance":         "2024-01-01",
		"maintenance_interval_days": float64(30),
		"maintenance_cost":          12.5,
		"end_of_life":               nil,
	}, maintenance[0])

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(store.Path()), "*.tmp"))
	require.NoError(t, err)
	require.Empty(t, matches, "temporary files must not be left behind")
}

func TestStore_ReadsExistingDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "database.json")
	content := `{
  "users": {"ben@example.com": {"name": "Ben"}},
  "devices": {"dev-9": {"device_name": "Drucker", "managed_by_user_id": "", "is_active": false}},
  "reservations": [
    {"id": "r-1", "device_id": "dev-9", "user_id": "ben@example.com", "start": "2024-05-02T08:15", "end": "2024-05-02T09:00"},
    {"id": "r-2", "device_id": "dev-9", "user_id": "ben@example.com", "start": "2024-05-03T08:15:42", "end": "2024-05-03T09:00:00"}
  ],
  "maintenance": [
    {"id": "dev-9", "device_id": "dev-9", "first_maintenance": null, "maintenance_interval_days": null, "maintenance_cost": 0, "end_of_life": "2030-12-31"}
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store, err := Open(path, time.UTC)
	require.NoError(t, err)
	ctx := context.Background()

	device, err := store.GetDevice(ctx, "dev-9")
	require.NoError(t, err)
	require.Equal(t, persistence.Device{ID: "dev-9", Name: "Drucker"}, device)

	reservations, err := store.ListReservationsForDevice(ctx, "dev-9")
	require.NoError(t, err)
	require.Len(t, reservations, 2)
	require.True(t, reservations[1].Start.Equal(time.Date(2024, time.May, 3, 8, 15, 0, 0, time.UTC)))

	record, err := store.GetOrCreateMaintenance(ctx, "dev-9")
	require.NoError(t, err)
	require.Nil(t, record.FirstMaintenance)
	require.Zero(t, record.IntervalDays)
	require.True(t, record.Cost.IsZero())
	require.NotNil(t, record.EndOfLife)
	require.Equal(t, "2030-12-31", record.EndOfLife.Format(DateLayout))
}

func TestStore_RejectsCorruptDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "database.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := Open(path, time.UTC)
	require.NoError(t, err)

	_, err = store.ListUsers(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode")
}

func TestStore_GetOrCreateMaintenancePersistsEmptyRecord(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	record, err := store.GetOrCreateMaintenance(ctx, "dev-1")
	require.NoError(t, err)
	require.Equal(t, "dev-1", record.ID)
	require.False(t, record.FirstMaintenance != nil)

	records, err := store.ListMaintenance(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = store.GetOrCreateMaintenance(ctx, "dev-1")
	require.NoError(t, err)
	records, err = store.ListMaintenance(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1, "a second call must not append a duplicate")
}

func TestStore_HonoursCancelledContext(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.CreateUser(ctx, persistence.User{ID: "x", Name: "X"})
	require.ErrorIs(t, err, context.Canceled)
}
