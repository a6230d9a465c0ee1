// Package sqlstore implements storage.Store on database/sql for SQLite
// (modernc.org/sqlite, no CGO) and PostgreSQL (pgx).
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver "pgx"
	_ "modernc.org/sqlite"             // Pure Go SQLite driver "sqlite"

	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// queries holds every query method. It runs on either the connection pool or
// a single transaction.
type queries struct {
	db      storage.DBTX
	dialect Dialect
}

// Store implements storage.Store.
type Store struct {
	*queries
	conn *sql.DB
}

// New opens a store for the given driver ("sqlite" or "postgres") and DSN
// and runs migrations.
//
// For SQLite the DSN is a file path; parent directories are created and
// foreign keys are enabled on the connection.
func New(driver, dsn string) (*Store, error) {
	d, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	db, err := Open(d, dsn)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db, d, "up"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{queries: &queries{db: db, dialect: d}, conn: db}, nil
}

// NewSQLite is shorthand for New("sqlite", path).
func NewSQLite(path string) (*Store, error) {
	return New("sqlite", path)
}

// Open opens and pings the database without running migrations.
func Open(d Dialect, dsn string) (*sql.DB, error) {
	if d == SQLite {
		var err error
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if d == SQLite {
		// One connection serializes writers, which is what SQLite wants.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func sqliteDSN(path string) (string, error) {
	if strings.HasPrefix(path, "file:") || strings.Contains(path, "?") {
		return path, nil
	}
	if path != ":memory:" {
		// Create parent directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// RunInTx runs fn inside one transaction and commits only if fn succeeds.
func (s *Store) RunInTx(ctx context.Context, fn func(q storage.Queries) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{db: tx, dialect: s.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (q *queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := q.db.ExecContext(ctx, q.dialect.rebind(query), args...)
	return res, mapError(err)
}

func (q *queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := q.db.QueryContext(ctx, q.dialect.rebind(query), args...)
	return rows, mapError(err)
}

func (q *queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.dialect.rebind(query), args...)
}

// execOne runs a statement that must touch exactly one row and returns
// notFound otherwise.
func (q *queries) execOne(ctx context.Context, notFound error, query string, args ...any) error {
	res, err := q.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Timestamps are stored as unix milliseconds in both dialects.
func toUnix(t time.Time) int64 {
	return t.UnixMilli()
}

func fromUnix(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
