package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// sqliteMigrations mirror the Postgres schema. Timestamps are unix nanoseconds.
var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		username   TEXT    NOT NULL UNIQUE,
		password   TEXT    NOT NULL,
		email      TEXT    NOT NULL UNIQUE,
		created_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS downloads (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id       INTEGER REFERENCES users(id),
		video_url     TEXT    NOT NULL,
		platform      TEXT    NOT NULL,
		title         TEXT,
		quality       TEXT,
		format        TEXT,
		downloaded_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_downloads_user_id ON downloads(user_id)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		token      TEXT    PRIMARY KEY,
		user_id    INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
}

// SQLiteDB is a single-file (or in-memory) backend for local runs and tests.
type SQLiteDB struct {
	DB *sql.DB
}

// NewSQLite opens the database at path. ":memory:" gives a private in-memory database.
func NewSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	slog.Info("connected to database", "driver", "sqlite", "path", path)
	return &SQLiteDB{DB: db}, nil
}

// Store returns the SQLite-backed repository.
func (s *SQLiteDB) Store() Store {
	return NewSQLiteRepository(s.DB)
}

// RunMigrations applies the schema. Every statement is idempotent.
func (s *SQLiteDB) RunMigrations(ctx context.Context) error {
	for i, m := range sqliteMigrations {
		if _, err := s.DB.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("sqlite migration %d failed: %w", i, err)
		}
	}
	return nil
}

func (s *SQLiteDB) HealthCheck(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SQLiteDB) Close() {
	if err := s.DB.Close(); err != nil {
		slog.Error("failed to close sqlite database", "error", err)
	}
}
