package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/example/device-scheduler/internal/persistence"
)

// Config holds the connection settings of the SQLite store.
type Config struct {
	// DSN is a file path or a "file:" URI understood by modernc.org/sqlite.
	DSN string
	// BusyTimeout sets how long a statement waits for a competing writer.
	BusyTimeout time.Duration
	// JournalMode is applied with PRAGMA journal_mode, e.g. WAL or DELETE.
	JournalMode string
	// MaxOpenConns caps the pool. In-memory databases need a single connection.
	MaxOpenConns int
}

// DefaultConfig returns settings suitable for a single-process deployment.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:          dsn,
		BusyTimeout:  5 * time.Second,
		JournalMode:  "WAL",
		MaxOpenConns: 4,
	}
}

// connectionString appends the pragmas as _pragma query parameters so that
// every pooled connection is configured, not only the first one.
func (c Config) connectionString() string {
	pragmas := []string{fmt.Sprintf("_pragma=busy_timeout(%d)", c.BusyTimeout.Milliseconds())}
	if c.JournalMode != "" && !isMemoryDSN(c.DSN) {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=journal_mode(%s)", c.JournalMode))
	}
	sep := "?"
	if strings.Contains(c.DSN, "?") {
		sep = "&"
	}
	return c.DSN + sep + strings.Join(pragmas, "&")
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory") || strings.HasPrefix(dsn, "file::memory:")
}

// openDB opens and pings a configured database handle.
func openDB(ctx context.Context, cfg Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("sqlite: DSN is required")
	}
	db, err := sql.Open("sqlite", cfg.connectionString())
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: open database")
	}

	maxOpen := cfg.MaxOpenConns
	if isMemoryDSN(cfg.DSN) {
		maxOpen = 1
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlite: ping database")
	}
	return db, nil
}

// withTransaction runs fn inside a transaction. It rolls back when fn fails
// or panics and commits otherwise.
func withTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "sqlite: begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.WithSecondaryError(err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "sqlite: commit transaction")
	}
	return nil
}

// mapError translates driver errors into persistence errors so callers can
// use errors.Is without knowing the backend.
func mapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrapf(persistence.ErrNotFound, format, args...)
	}
	if isUniqueViolation(err) {
		return errors.Wrapf(errors.Mark(err, persistence.ErrDuplicate), format, args...)
	}
	return errors.Wrapf(err, format, args...)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
			return false
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY constraint failed")
}
