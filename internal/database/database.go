package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect describes how to talk to one SQL backend.
type Dialect struct {
	Name   string
	Driver string
	Schema []string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
}

var dialects = map[string]Dialect{
	"mysql": {
		Name:   "mysql",
		Driver: "mysql",
		Schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id VARCHAR(36) PRIMARY KEY,
				username VARCHAR(255) NOT NULL,
				created_at BIGINT NOT NULL
			) ENGINE=InnoDB`,
			`CREATE TABLE IF NOT EXISTS exercises (
				id VARCHAR(36) PRIMARY KEY,
				user_id VARCHAR(36) NOT NULL,
				description TEXT NOT NULL,
				duration INT NOT NULL,
				performed_on DATETIME NOT NULL,
				created_at BIGINT NOT NULL,
				INDEX idx_exercises_user_date (user_id, performed_on)
			) ENGINE=InnoDB`,
		},
	},
	"postgres": {
		Name:   "postgres",
		Driver: "pgx",
		Schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL,
				created_at BIGINT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS exercises (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				description TEXT NOT NULL,
				duration INTEGER NOT NULL,
				performed_on TIMESTAMPTZ NOT NULL,
				created_at BIGINT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_exercises_user_date ON exercises (user_id, performed_on)`,
		},
		numbered: true,
	},
	"sqlite3": {
		Name:   "sqlite3",
		Driver: "sqlite3",
		Schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL,
				created_at INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS exercises (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				description TEXT NOT NULL,
				duration INTEGER NOT NULL,
				performed_on DATETIME NOT NULL,
				created_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_exercises_user_date ON exercises (user_id, performed_on)`,
		},
	},
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported sql dialect %q", name)
	}
	return d, nil
}

// Rebind rewrites ? placeholders for dialects that number their parameters.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NewConnection opens a pooled connection, verifies it and creates the schema.
func NewConnection(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	if dialect.Name == "mysql" {
		normalized, err := normalizeMySQLDSN(dsn)
		if err != nil {
			return nil, err
		}
		dsn = normalized
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect.Name == "sqlite3" {
		// a single connection keeps ":memory:" databases shared
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := EnsureSchema(ctx, db, dialect); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the tables and indexes if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	for _, query := range dialect.Schema {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

// normalizeMySQLDSN forces DATETIME columns to scan into time.Time in UTC.
func normalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}
