package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/device-scheduler/internal/config"
)

func TestNewServer(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{config.DriverJSON, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			cfg := config.Config{
				HTTPPort:    9090,
				StoreDriver: driver,
				DataFile:    filepath.Join(dir, "database.json"),
				SQLiteDSN:   filepath.Join(dir, "devices.db"),
				Location:    time.UTC,
			}
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			server, closeStore, err := newServer(context.Background(), cfg, logger)
			if err != nil {
				t.Fatalf("newServer returned error: %v", err)
			}
			t.Cleanup(func() { _ = closeStore() })

			if server.Addr != ":9090" {
				t.Fatalf("unexpected address %q", server.Addr)
			}

			rec := httptest.NewRecorder()
			server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected healthy store, got %d: %s", rec.Code, rec.Body.String())
			}

			rec = httptest.NewRecorder()
			server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices", nil))
			if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"devices"`) {
				t.Fatalf("unexpected device listing %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestNewServer_FailsOnUnusableDataFile(t *testing.T) {
	t.Parallel()

	// A regular file where the data directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("failed to create blocker: %v", err)
	}
	cfg := config.Config{StoreDriver: config.DriverJSON, DataFile: filepath.Join(blocker, "database.json"), Location: time.UTC}

	if _, _, err := newServer(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatal("expected an error for an unusable data file")
	}
}
