// Package repository keeps run history and archived newsletters in SQLite.
package repository

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers "sqlite" driver
)

const defaultDSN = "file:maildigest.db?cache=shared&mode=rwc&_txlock=immediate"

//go:embed schema.sql
var schema string

// connection setup applied once at open; busy_timeout lets writers wait for each other
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// Config for the database. Zero pool values keep driver defaults.
type Config struct {
	DSN      string
	MaxConns int
	MaxIdle  int
}

// Repositories bundles run history and archive over one connection pool
type Repositories struct {
	Run     *RunRepository
	Archive *ArchiveRepository
	DB      *sqlx.DB
}

// NewRepositories opens the database, applies pragmas and schema
func NewRepositories(ctx context.Context, cfg Config) (*Repositories, error) {
	db, err := open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Repositories{Run: NewRunRepository(db), Archive: NewArchiveRepository(db), DB: db}, nil
}

// Close the underlying pool
func (r *Repositories) Close() error { return r.DB.Close() }

// Ping checks the database is reachable
func (r *Repositories) Ping(ctx context.Context) error { return r.DB.PingContext(ctx) }

func open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		cfg.DSN = defaultDSN
	}
	if strings.Contains(cfg.DSN, ":memory:") {
		cfg.MaxConns = 1 // in-memory database lives in a single connection
	}

	db, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	setup := append(append([]string{}, pragmas...), schema)
	for _, stmt := range setup {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("prepare database: %w", err)
		}
	}
	return db, nil
}
