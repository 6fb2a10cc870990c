// Package sqlite implements persistence.Store on top of modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence/sqlite/migration"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence/sqlite/migrations"
)

// Store is the SQLite backed persistence.Store.
type Store struct {
	pool   *ConnectionPool
	retry  *RetryHelper
	mapper *ErrorMapper
	logger *slog.Logger
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}

	manager := migration.NewManager(
		migration.NewFileScanner(migrations.FS),
		migration.NewSQLiteExecutor(pool.DB()),
		".",
		logger,
	)
	applied, err := manager.RunMigrations(ctx)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.InfoContext(ctx, "sqlite store ready",
		slog.String("path", config.Path),
		slog.Int("migrations_applied", applied),
	)

	return &Store{
		pool:   pool,
		retry:  NewRetryHelper(DefaultRetryConfig()),
		mapper: NewErrorMapper(),
		logger: logger,
	}, nil
}

// Queries returns row operations bound to the connection pool.
func (s *Store) Queries() persistence.Queries {
	return &queries{db: s.pool.DB(), mapper: s.mapper}
}

// WithTx runs fn in one transaction, retrying the whole transaction while
// SQLite reports the database as busy or locked.
func (s *Store) WithTx(ctx context.Context, fn func(q persistence.Queries) error) error {
	attempt := 0
	return s.retry.WithRetry(ctx, func() error {
		attempt++
		if attempt > 1 {
			s.logger.WarnContext(ctx, "retrying sqlite transaction", slog.Int("attempt", attempt))
		}
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			return fn(&queries{db: tx, mapper: s.mapper})
		})
	})
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

type queries struct {
	db     dbtx
	mapper *ErrorMapper
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
