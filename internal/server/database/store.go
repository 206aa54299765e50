package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrDuplicateUser   = errors.New("duplicate user")
)

// Store is the CRUD contract every backend implements.
type Store interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user *NewUser) (*User, error)

	CreateDownload(ctx context.Context, download *NewDownload) (*Download, error)
	GetDownloadsByUserID(ctx context.Context, userID int64) ([]*Download, error)

	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, token string) (*Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// Backend is an open database: a Store plus its lifecycle.
type Backend interface {
	Store() Store
	RunMigrations(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Close()
}

const sqliteScheme = "sqlite://"

// Open picks a backend from the URL scheme: sqlite://<path> opens SQLite,
// anything else is handed to pgx.
func Open(ctx context.Context, databaseURL string) (Backend, error) {
	if path, ok := strings.CutPrefix(databaseURL, sqliteScheme); ok {
		if path == "" {
			return nil, fmt.Errorf("sqlite database URL has no path")
		}
		db, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return db, nil
}
