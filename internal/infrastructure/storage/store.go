package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"IdeaScanner/internal/domain"
)

// Store persists topics, source items, concepts and subscribers in SQLite or Postgres.
type Store struct {
	db  *sql.DB
	d   dialect
	sb  sq.StatementBuilderType
	now func() time.Time
}

// Open connects to the configured database and applies the embedded schema.
func Open(ctx context.Context, driverName, dsn string) (*Store, error) {
	d, err := dialectFor(driverName)
	if err != nil {
		return nil, err
	}
	if d.name == DriverSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if d.name == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	store, err := New(db, driverName)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing connection. The caller owns migrations.
func New(db *sql.DB, driverName string) (*Store, error) {
	d, err := dialectFor(driverName)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:  db,
		d:   d,
		sb:  sq.StatementBuilder.PlaceholderFormat(d.placeholder),
		now: time.Now,
	}, nil
}

// WithClock overrides the time source used for created_at/updated_at columns.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Migrate creates tables and indexes when absent.
func (s *Store) Migrate(ctx context.Context) error {
	if s.d.name == DriverSQLite {
		if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			return fmt.Errorf("set busy timeout: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, s.d.schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Health pings the database and counts stored concepts.
func (s *Store) Health(ctx context.Context) (time.Duration, int, error) {
	started := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		return 0, 0, fmt.Errorf("ping: %w", err)
	}
	query, args, err := s.sb.Select("COUNT(*)").From("concepts").ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("build count: %w", err)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("count concepts: %w", err)
	}
	return time.Since(started), count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) exec(ctx context.Context, ex execer, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return ex.ExecContext(ctx, query, args...)
}

func (s *Store) queryRow(ctx context.Context, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.db.QueryRowContext(ctx, query, args...), nil
}

func (s *Store) query(ctx context.Context, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.db.QueryContext(ctx, query, args...)
}

// getOrCreate reads a row by natural key and inserts it when absent.
// create must tolerate a concurrent insert (ON CONFLICT DO NOTHING).
func getOrCreate[T any](ctx context.Context, get func(context.Context) (T, error), create func(context.Context) error) (T, error) {
	v, err := get(ctx)
	if err == nil {
		return v, nil
	}
	var zero T
	if !errors.Is(err, domain.ErrNotFound) {
		return zero, err
	}
	if err := create(ctx); err != nil {
		return zero, err
	}
	return get(ctx)
}

func collect[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close rows: %w", err)
	}
	return out, nil
}
