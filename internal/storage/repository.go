// Package storage is the SQL data store behind finboard. It speaks both
// SQLite (modernc.org/sqlite, pure Go) and PostgreSQL (lib/pq) through a
// single set of queries written with $N placeholders.
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

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"finboard/internal/core"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Repository owns the connection pool. It holds no per-request state and
// is safe for concurrent use.
type Repository struct {
	db     *sql.DB
	driver string
}

// Open connects to the database, verifies the connection and applies
// pending migrations.
func Open(ctx context.Context, driver, dsn string) (*Repository, error) {
	if driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(driver, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, driver: driver}, nil
}

// sqliteDSN enables foreign keys and a busy timeout on every pooled
// connection.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *Repository) Driver() string {
	return r.driver
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// isUniqueViolation reports whether err is a unique constraint failure in
// either dialect.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// scanDate converts a date column into a core.Date. SQLite hands back the
// stored TEXT, lib/pq a time.Time.
func scanDate(v any) (core.Date, error) {
	switch t := v.(type) {
	case time.Time:
		return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
	case string:
		return parseStoredDate(t)
	case []byte:
		return parseStoredDate(string(t))
	case nil:
		return core.Date{}, nil
	default:
		return core.Date{}, fmt.Errorf("unexpected date column type %T", v)
	}
}

func parseStoredDate(s string) (core.Date, error) {
	if len(s) > len(core.DateLayout) {
		s = s[:len(core.DateLayout)]
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return d, nil
}
