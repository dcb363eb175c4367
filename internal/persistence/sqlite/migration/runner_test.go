package migration

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	migrations := []Migration{
		{Version: "001", Description: "users", SQL: "CREATE TABLE users (id TEXT PRIMARY KEY);", FilePath: "001_users.sql", Checksum: "a"},
		{Version: "002", Description: "devices", SQL: "CREATE TABLE devices (id TEXT PRIMARY KEY); CREATE INDEX idx_devices ON devices (id);", FilePath: "002_devices.sql", Checksum: "b"},
	}

	t.Run("applies pending migrations once", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		db := openMemoryDB(t)
		runner := NewRunner(NewSQLiteExecutor(db), discardLogger())

		ran, err := runner.Run(ctx, migrations)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(ran) != 2 {
			t.Fatalf("expected two applied migrations, got %v", ran)
		}

		ran, err = runner.Run(ctx, migrations)
		if err != nil {
			t.Fatalf("second Run failed: %v", err)
		}
		if len(ran) != 0 {
			t.Fatalf("expected no migrations on second run, got %v", ran)
		}

		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("count schema_migrations: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected 2 recorded migrations, got %d", count)
		}
	})

	t.Run("rolls back a failing migration", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		db := openMemoryDB(t)
		runner := NewRunner(NewSQLiteExecutor(db), discardLogger())

		broken := []Migration{
			migrations[0],
			{Version: "002", SQL: "CREATE TABLE partial (id TEXT); INSERT INTO missing VALUES (1);", FilePath: "002_broken.sql"},
		}
		ran, err := runner.Run(ctx, broken)
		if !errors.Is(err, ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}
		if len(ran) != 1 || ran[0] != "001" {
			t.Fatalf("expected only 001 to be applied, got %v", ran)
		}

		var name string
		err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='partial'").Scan(&name)
		if !errors.Is(err, sql.ErrNoRows) {
			t.Fatalf("expected the partial table to be rolled back, got %q (%v)", name, err)
		}
	})

	t.Run("detects edited migrations", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		db := openMemoryDB(t)
		runner := NewRunner(NewSQLiteExecutor(db), discardLogger())

		if _, err := runner.Run(ctx, migrations[:1]); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		edited := migrations[0]
		edited.Checksum = "changed"
		if _, err := runner.Run(ctx, []Migration{edited}); !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("expected ErrChecksumMismatch, got %v", err)
		}
	})
}
