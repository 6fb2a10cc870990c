package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence/memory"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence/sqlite"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence/sqlite/migration"
)

// NewSQLiteStore opens a migrated store on a temporary file. The store is
// closed when the test finishes.
func NewSQLiteStore(tb testing.TB) *sqlite.Store {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "conference.db")
	store, err := sqlite.Open(context.Background(), migration.TempFileTestSQLiteConfig(path), DiscardLogger())
	if err != nil {
		tb.Fatalf("failed to open sqlite store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })
	return store
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(tb testing.TB) *memory.Store {
	tb.Helper()
	store := memory.Open()
	tb.Cleanup(func() { _ = store.Close() })
	return store
}

// StoreFactory names a persistence backend for table driven tests.
type StoreFactory struct {
	Name string
	Open func(testing.TB) persistence.Store
}

// StoreFactories lists every backend so contract tests can run against each.
func StoreFactories() []StoreFactory {
	return []StoreFactory{
		{Name: "memory", Open: func(tb testing.TB) persistence.Store { return NewMemoryStore(tb) }},
		{Name: "sqlite", Open: func(tb testing.TB) persistence.Store { return NewSQLiteStore(tb) }},
	}
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
