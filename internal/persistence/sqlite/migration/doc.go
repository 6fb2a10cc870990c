// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files are read from an fs.FS (normally an embed.FS compiled into
// the binary) and follow the naming convention {version}_{description}.sql,
// for example "001_initial_schema.sql". Each file runs in its own transaction
// together with the row recording it in the schema_migrations table, so a
// failed file leaves no partial schema behind.
//
// The checksum of every applied file is stored. Editing a file after it has
// been applied is reported as ErrChecksumMismatch rather than silently
// ignored.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewFileScanner(migrations.FS), migration.NewSQLiteExecutor(db), ".", logger)
//	if _, err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
