package migration

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
)

// SQLiteExecutor applies migrations and tracks them in schema_migrations.
type SQLiteExecutor struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteExecutor creates a new SQLite migration executor.
func NewSQLiteExecutor(db *sql.DB) *SQLiteExecutor {
	return &SQLiteExecutor{db: db, now: time.Now}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
func (e *SQLiteExecutor) InitializeVersionTable(ctx context.Context) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT NOT NULL DEFAULT '',
			execution_time_ms INTEGER NOT NULL DEFAULT 0
		)`
	if _, err := e.db.ExecContext(ctx, createTableSQL); err != nil {
		return errors.Wrap(err, "migration: create schema_migrations table")
	}
	return nil
}

// AppliedMigrations returns the recorded migrations keyed by version.
func (e *SQLiteExecutor) AppliedMigrations(ctx context.Context) (map[string]AppliedMigration, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT version, applied_at, checksum, execution_time_ms
		FROM schema_migrations`)
	if err != nil {
		return nil, errors.Wrap(err, "migration: query applied versions")
	}
	defer rows.Close()

	applied := make(map[string]AppliedMigration)
	for rows.Next() {
		var (
			m         AppliedMigration
			appliedAt string
			elapsedMS int64
		)
		if err := rows.Scan(&m.Version, &appliedAt, &m.Checksum, &elapsedMS); err != nil {
			return nil, errors.Wrap(err, "migration: scan applied migration")
		}
		m.AppliedAt, err = time.Parse(time.RFC3339, appliedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "migration: parse applied_at of %s", m.Version)
		}
		m.ExecutionTime = time.Duration(elapsedMS) * time.Millisecond
		applied[m.Version] = m
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "migration: iterate applied migrations")
	}
	return applied, nil
}

// ExecuteMigration runs every statement of m and records it, all within one
// transaction.
func (e *SQLiteExecutor) ExecuteMigration(ctx context.Context, m Migration) (time.Duration, error) {
	statements := splitStatements(m.SQL)
	if len(statements) == 0 {
		return 0, newMigrationError(m, "parse SQL", ErrInvalidMigrationFile)
	}

	started := e.now()
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, newMigrationError(m, "begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, newMigrationError(m, "execute statement", errors.Wrapf(errors.Mark(err, ErrMigrationFailed), "statement %d", i+1))
		}
	}

	elapsed := e.now().Sub(started)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`,
		m.Version, e.now().UTC().Format(time.RFC3339), m.Checksum, elapsed.Milliseconds(),
	); err != nil {
		return 0, newMigrationError(m, "record migration", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, newMigrationError(m, "commit transaction", err)
	}
	return elapsed, nil
}
