package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestFileScanner_ScanMigrations(t *testing.T) {
	t.Parallel()

	t.Run("orders migrations numerically and reads descriptions", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"migrations/010_add_index.sql":      {Data: []byte("CREATE INDEX idx ON t(a);")},
			"migrations/002_second.sql":         {Data: []byte("-- Description: Adds column\nALTER TABLE t ADD COLUMN b TEXT;")},
			"migrations/001_initial_schema.sql": {Data: []byte("CREATE TABLE t (a TEXT);")},
			"migrations/README.md":              {Data: []byte("ignored")},
		}

		migrations, err := NewFileScanner(fsys).ScanMigrations("migrations")
		if err != nil {
			t.Fatalf("ScanMigrations returned error: %v", err)
		}
		if len(migrations) != 3 {
			t.Fatalf("expected 3 migrations, got %d", len(migrations))
		}

		got := []string{migrations[0].Version, migrations[1].Version, migrations[2].Version}
		want := []string{"001", "002", "010"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("unexpected order %v, want %v", got, want)
			}
		}
		if migrations[0].Description != "initial schema" {
			t.Fatalf("expected filename description, got %q", migrations[0].Description)
		}
		if migrations[1].Description != "Adds column" {
			t.Fatalf("expected comment description, got %q", migrations[1].Description)
		}
		if migrations[0].Checksum == "" || migrations[0].Checksum == migrations[1].Checksum {
			t.Fatalf("expected distinct checksums, got %q and %q", migrations[0].Checksum, migrations[1].Checksum)
		}
	})

	t.Run("skips directories and non-sql files", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"001_a.sql":      {Data: []byte("SELECT 1;")},
			"nested/002.sql": {Data: []byte("SELECT 2;")},
			"notes.txt":      {Data: []byte("ignored")},
		}

		migrations, err := NewFileScanner(fsys).ScanMigrations(".")
		if err != nil {
			t.Fatalf("ScanMigrations returned error: %v", err)
		}
		if len(migrations) != 1 || migrations[0].Version != "001" {
			t.Fatalf("unexpected migrations: %+v", migrations)
		}
	})

	t.Run("rejects malformed file names and bodies", func(t *testing.T) {
		t.Parallel()

		cases := map[string]fstest.MapFS{
			"bad name":   {"initial.sql": {Data: []byte("SELECT 1;")}},
			"empty body": {"001_empty.sql": {Data: []byte("   ")}},
			"unbalanced": {"001_broken.sql": {Data: []byte("CREATE TABLE t (a TEXT;")}},
		}
		for name, fsys := range cases {
			if _, err := NewFileScanner(fsys).ScanMigrations("."); !errors.Is(err, ErrInvalidMigrationFile) {
				t.Fatalf("%s: expected ErrInvalidMigrationFile, got %v", name, err)
			}
		}
	})
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	statements := splitStatements(`
-- Description: test
CREATE TABLE a (id TEXT);
-- comment only;
CREATE TABLE b (id TEXT);
`)
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(statements), statements)
	}
	if statements[1] != "CREATE TABLE b (id TEXT)" {
		t.Fatalf("unexpected statement %q", statements[1])
	}
}

func TestFileScanner_RejectsDuplicateVersions(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 2;")},
	}

	if _, err := NewFileScanner(fsys).ScanMigrations("."); !errors.Is(err, ErrDuplicateVersion) {
		t.Fatalf("expected ErrDuplicateVersion, got %v", err)
	}
}

func TestFileScanner_ReportsStage(t *testing.T) {
	t.Parallel()

	_, err := NewFileScanner(fstest.MapFS{}).ScanMigrations("missing")
	var stepErr *Error
	if !errors.As(err, &stepErr) || stepErr.Stage != StageFile || stepErr.Path != "missing" {
		t.Fatalf("expected file stage error, got %v", err)
	}

	fsys := fstest.MapFS{"002_broken.sql": {Data: []byte("CREATE TABLE t (id TEXT;")}}
	_, err = NewFileScanner(fsys).ScanMigrations(".")
	if !errors.As(err, &stepErr) || stepErr.Stage != StageScan || stepErr.Version != "002" {
		t.Fatalf("expected scan stage error for 002, got %v", err)
	}
}
