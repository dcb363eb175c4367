// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migrations are read from an fs.FS, usually an embed.FS compiled into the
// binary, and must be named {version}_{description}.sql, for example
// "001_initial_schema.sql". Each migration runs in its own transaction
// together with the row that records it in schema_migrations, so a failed
// migration leaves no trace and is retried on the next start.
package migration
