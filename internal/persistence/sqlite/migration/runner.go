package migration

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// Runner applies pending migrations in version order.
type Runner struct {
	executor *SQLiteExecutor
	logger   *slog.Logger
}

// NewRunner constructs a Runner. A nil logger falls back to slog.Default.
func NewRunner(executor *SQLiteExecutor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{executor: executor, logger: logger.With("component", "migration")}
}

// Run applies every migration that is not yet recorded and returns the
// versions it applied. An applied migration whose checksum no longer matches
// aborts the run.
func (r *Runner) Run(ctx context.Context, migrations []Migration) ([]string, error) {
	if err := r.executor.InitializeVersionTable(ctx); err != nil {
		return nil, err
	}
	applied, err := r.executor.AppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, m := range migrations {
		if done, ok := applied[m.Version]; ok {
			if done.Checksum != "" && m.Checksum != "" && done.Checksum != m.Checksum {
				return ran, newMigrationError(m, "verify checksum", errors.WithDetailf(ErrChecksumMismatch, "recorded %s, file %s", done.Checksum, m.Checksum))
			}
			continue
		}

		elapsed, err := r.executor.ExecuteMigration(ctx, m)
		if err != nil {
			r.logger.ErrorContext(ctx, "migration failed", "version", m.Version, "file", m.FilePath, "error", err)
			return ran, err
		}
		r.logger.InfoContext(ctx, "migration applied", "version", m.Version, "description", m.Description, "duration", elapsed)
		ran = append(ran, m.Version)
	}

	if len(ran) == 0 {
		r.logger.DebugContext(ctx, "schema up to date", "migrations", len(migrations))
	}
	return ran, nil
}
