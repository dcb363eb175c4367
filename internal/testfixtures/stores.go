package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/device-scheduler/internal/persistence"
	"github.com/example/device-scheduler/internal/persistence/jsonstore"
	"github.com/example/device-scheduler/internal/persistence/sqlite"
)

// StoreHarness names a persistence backend for table driven tests.
type StoreHarness struct {
	Name string
	Open func(tb testing.TB) persistence.Store
}

// StoreHarnesses lists every backend so contract tests can run against each.
func StoreHarnesses() []StoreHarness {
	return []StoreHarness{
		{Name: "jsonstore", Open: func(tb testing.TB) persistence.Store { return NewJSONStore(tb) }},
		{Name: "sqlite", Open: func(tb testing.TB) persistence.Store { return NewSQLiteStorage(tb) }},
	}
}

// NewJSONStore returns a JSON store backed by a file in a temporary directory.
func NewJSONStore(tb testing.TB) *jsonstore.Store {
	tb.Helper()

	store, err := jsonstore.Open(filepath.Join(tb.TempDir(), "database.json"), time.UTC)
	if err != nil {
		tb.Fatalf("failed to open json store: %v", err)
	}
	return store
}

// NewSQLiteStorage constructs a migrated SQLite storage in a temporary file.
// The storage is closed when the test finishes.
func NewSQLiteStorage(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "devices.db")
	storage, err := sqlite.Open(context.Background(), sqlite.DefaultConfig(path),
		sqlite.WithLocation(time.UTC),
		sqlite.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	tb.Cleanup(func() { _ = storage.Close() })
	return storage
}
