package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "DEVICESCHEDULER"

// Store drivers accepted by STORE_DRIVER.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Config captures environment driven configuration values for the device scheduler.
type Config struct {
	HTTPPort            int
	StoreDriver         string
	DataFile            string
	SQLiteDSN           string
	Location            *time.Location
	LogLevel            string
	LogFormat           string
	CostHonorsEndOfLife bool
}

// env mirrors the raw variables. Values are kept as strings so that every
// invalid entry can be reported at once instead of failing on the first.
type env struct {
	HTTPPort            string `envconfig:"HTTP_PORT" default:"8080"`
	StoreDriver         string `envconfig:"STORE_DRIVER" default:"json"`
	DataFile            string `envconfig:"DATA_FILE" default:"database.json"`
	SQLiteDSN           string `envconfig:"SQLITE_DSN" default:"file:devices.db"`
	Timezone            string `envconfig:"TIMEZONE" default:"Europe/Berlin"`
	LogLevel            string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat           string `envconfig:"LOG_FORMAT" default:"json"`
	CostHonorsEndOfLife string `envconfig:"COST_HONORS_END_OF_LIFE" default:"false"`
}

// Load parses configuration values from the current process environment.
// Variables from the given dotenv files are applied first without overriding
// values already set; missing files are ignored.
func Load(dotenvFiles ...string) (Config, error) {
	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "config: read %s", file)
		}
	}

	var raw env
	if err := envconfig.Process(Prefix, &raw); err != nil {
		return Config{}, errors.Wrap(err, "config: process environment")
	}

	cfg := Config{
		DataFile:  strings.TrimSpace(raw.DataFile),
		SQLiteDSN: strings.TrimSpace(raw.SQLiteDSN),
	}
	invalid := make([]string, 0, 2)
	name := func(key string) string { return Prefix + "_" + key }

	port, err := strconv.Atoi(strings.TrimSpace(raw.HTTPPort))
	if err != nil || port <= 0 || port > 65535 {
		invalid = append(invalid, name("HTTP_PORT"))
	} else {
		cfg.HTTPPort = port
	}

	switch driver := strings.ToLower(strings.TrimSpace(raw.StoreDriver)); driver {
	case DriverJSON, DriverSQLite:
		cfg.StoreDriver = driver
	default:
		invalid = append(invalid, name("STORE_DRIVER"))
	}

	if cfg.StoreDriver == DriverJSON && cfg.DataFile == "" {
		invalid = append(invalid, name("DATA_FILE"))
	}
	if cfg.StoreDriver == DriverSQLite && cfg.SQLiteDSN == "" {
		invalid = append(invalid, name("SQLITE_DSN"))
	}

	loc, err := time.LoadLocation(strings.TrimSpace(raw.Timezone))
	if err != nil {
		invalid = append(invalid, name("TIMEZONE"))
	} else {
		cfg.Location = loc
	}

	switch level := strings.ToLower(strings.TrimSpace(raw.LogLevel)); level {
	case "debug", "info", "warn", "error":
		cfg.LogLevel = level
	default:
		invalid = append(invalid, name("LOG_LEVEL"))
	}

	switch format := strings.ToLower(strings.TrimSpace(raw.LogFormat)); format {
	case "json", "text":
		cfg.LogFormat = format
	default:
		invalid = append(invalid, name("LOG_FORMAT"))
	}

	honors, err := strconv.ParseBool(strings.TrimSpace(raw.CostHonorsEndOfLife))
	if err != nil {
		invalid = append(invalid, name("COST_HONORS_END_OF_LIFE"))
	} else {
		cfg.CostHonorsEndOfLife = honors
	}

	if len(invalid) > 0 {
		return Config{}, errors.Newf("Ungültige Werte in Umgebungsvariablen: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
