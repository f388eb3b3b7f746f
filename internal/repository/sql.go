// Package repository holds the relational and analytical stores behind the
// domain repository interfaces.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	applogger "TechMart/pkg/logger"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and tunes the relational store.
type Config struct {
	Driver       string
	DSN          string // file path for sqlite, connection string for postgres
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
	// ZeroFill makes DailyDemand emit a point for every day in the window.
	ZeroFill bool
}

// SQLRepository implements the relational repositories on database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db       *sql.DB
	driver   string
	zeroFill bool
	now      func() time.Time
	l        *applogger.Logger
}

// Open connects to the configured database and runs migrations.
func Open(cfg Config, l *applogger.Logger) (*SQLRepository, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite:
		db, err = openSQLite(cfg.DSN)
	case DriverPostgres:
		db, err = openPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnLifetime)
	}
	if l == nil {
		l = applogger.Nop()
	}

	r := &SQLRepository{
		db:       db,
		driver:   cfg.Driver,
		zeroFill: cfg.ZeroFill,
		now:      time.Now,
		l:        l,
	}
	if err := r.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	l.Info("database ready", applogger.String("driver", cfg.Driver))
	return r, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = "./techmart.db"
	}
	dsn := path
	if !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	}
	dsn = withSQLiteTimeFormat(dsn)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// withSQLiteTimeFormat makes the driver write time.Time as
// "YYYY-MM-DD HH:MM:SS.fff+00:00", which date() and text comparison understand.
// The driver's default (time.Time.String) is opaque to SQLite date functions.
func withSQLiteTimeFormat(dsn string) string {
	if strings.Contains(dsn, "_time_format=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_time_format=sqlite"
}

func openPostgres(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (r *SQLRepository) migrate(ctx context.Context) error {
	for _, schema := range AllSchemas(r.driver) {
		if _, err := r.db.ExecContext(ctx, schema); err != nil {
			return err
		}
	}
	return nil
}

// DB exposes the pool for seeding and ad-hoc maintenance.
func (r *SQLRepository) DB() *sql.DB { return r.db }

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// dayExpr renders a timestamp column as a YYYY-MM-DD string.
func (r *SQLRepository) dayExpr(col string) string {
	if r.driver == DriverPostgres {
		return fmt.Sprintf("TO_CHAR(%s AT TIME ZONE 'UTC', 'YYYY-MM-DD')", col)
	}
	return fmt.Sprintf("date(%s)", col)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"))
	}
	return false
}
