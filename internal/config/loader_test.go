package config

import (
	"os"
	"path/filepath"
	"testing"
)

var allKeys = []string{
	"DEVICESCHEDULER_HTTP_PORT",
	"DEVICESCHEDULER_STORE_DRIVER",
	"DEVICESCHEDULER_DATA_FILE",
	"DEVICESCHEDULER_SQLITE_DSN",
	"DEVICESCHEDULER_TIMEZONE",
	"DEVICESCHEDULER_LOG_LEVEL",
	"DEVICESCHEDULER_LOG_FORMAT",
	"DEVICESCHEDULER_COST_HONORS_END_OF_LIFE",
}

// clearEnv unsets every known variable and restores the previous values when
// the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.StoreDriver != DriverJSON {
			t.Fatalf("expected json driver, got %q", cfg.StoreDriver)
		}
		if cfg.DataFile != "database.json" {
			t.Fatalf("unexpected default data file: %q", cfg.DataFile)
		}
		if cfg.SQLiteDSN != "file:devices.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.Location == nil || cfg.Location.String() != "Europe/Berlin" {
			t.Fatalf("unexpected default location: %v", cfg.Location)
		}
		if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
			t.Fatalf("unexpected logging defaults: %q %q", cfg.LogLevel, cfg.LogFormat)
		}
		if cfg.CostHonorsEndOfLife {
			t.Fatal("expected end-of-life clipping to be off by default")
		}
	})

	t.Run("reads overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DEVICESCHEDULER_HTTP_PORT", "9090")
		t.Setenv("DEVICESCHEDULER_STORE_DRIVER", "SQLite")
		t.Setenv("DEVICESCHEDULER_SQLITE_DSN", "file:/tmp/x.db")
		t.Setenv("DEVICESCHEDULER_TIMEZONE", "UTC")
		t.Setenv("DEVICESCHEDULER_LOG_FORMAT", "text")
		t.Setenv("DEVICESCHEDULER_COST_HONORS_END_OF_LIFE", "true")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.StoreDriver != DriverSQLite || cfg.SQLiteDSN != "file:/tmp/x.db" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.Location.String() != "UTC" || cfg.LogFormat != "text" || !cfg.CostHonorsEndOfLife {
			t.Fatalf("unexpected config: %+v", cfg)
		}
	})

	t.Run("reports every invalid value together", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DEVICESCHEDULER_HTTP_PORT", "not-a-port")
		t.Setenv("DEVICESCHEDULER_STORE_DRIVER", "postgres")
		t.Setenv("DEVICESCHEDULER_TIMEZONE", "Mars/Olympus")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
		expected := "Ungültige Werte in Umgebungsvariablen: DEVICESCHEDULER_HTTP_PORT, DEVICESCHEDULER_STORE_DRIVER, DEVICESCHEDULER_TIMEZONE"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("loads dotenv files without overriding the environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DEVICESCHEDULER_HTTP_PORT", "7000")

		path := filepath.Join(t.TempDir(), ".env")
		content := "DEVICESCHEDULER_HTTP_PORT=7001\nDEVICESCHEDULER_DATA_FILE=from-dotenv.json\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write dotenv file: %v", err)
		}

		cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 7000 {
			t.Fatalf("expected environment to win, got %d", cfg.HTTPPort)
		}
		if cfg.DataFile != "from-dotenv.json" {
			t.Fatalf("expected dotenv value, got %q", cfg.DataFile)
		}
	})
}
