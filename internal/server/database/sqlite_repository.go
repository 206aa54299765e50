package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository implements Store over database/sql and modernc.org/sqlite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLiteRepository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	return r.getUserWhere(ctx, "id = ?", id)
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return r.getUserWhere(ctx, "username = ?", username)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUserWhere(ctx, "email = ?", email)
}

func (r *SQLiteRepository) getUserWhere(ctx context.Context, where string, arg any) (*User, error) {
	user := &User{}
	var createdAt int64
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, email, password, created_at FROM users WHERE "+where, arg,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.CreatedAt = fromUnixNano(createdAt)
	return user, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, nu *NewUser) (*User, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password, created_at)
		VALUES (?, ?, ?, ?)
	`, nu.Username, nu.Email, nu.PasswordHash, now.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateUser, err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	return &User{
		ID:           id,
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		CreatedAt:    now,
	}, nil
}

func (r *SQLiteRepository) CreateDownload(ctx context.Context, nd *NewDownload) (*Download, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO downloads (user_id, video_url, platform, title, quality, format, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		nd.UserID,
		nd.VideoURL,
		nd.Platform,
		nd.Title,
		nd.Quality,
		nd.Format,
		now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create download: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read download id: %w", err)
	}

	return &Download{
		ID:           id,
		UserID:       nd.UserID,
		VideoURL:     nd.VideoURL,
		Platform:     nd.Platform,
		Title:        nd.Title,
		Quality:      nd.Quality,
		Format:       nd.Format,
		DownloadedAt: now,
	}, nil
}

func (r *SQLiteRepository) GetDownloadsByUserID(ctx context.Context, userID int64) ([]*Download, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, video_url, platform, title, quality, format, downloaded_at
		FROM downloads WHERE user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	downloads := []*Download{}
	for rows.Next() {
		d := &Download{}
		var owner sql.NullInt64
		var title, quality, format sql.NullString
		var downloadedAt int64
		if err := rows.Scan(
			&d.ID,
			&owner,
			&d.VideoURL,
			&d.Platform,
			&title,
			&quality,
			&format,
			&downloadedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		if owner.Valid {
			d.UserID = &owner.Int64
		}
		d.Title = nullableString(title)
		d.Quality = nullableString(quality)
		d.Format = nullableString(format)
		d.DownloadedAt = fromUnixNano(downloadedAt)
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, s *Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, s.Token, s.UserID, s.ExpiresAt.UnixNano(), s.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (*Session, error) {
	s := &Session{}
	var expiresAt, createdAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT token, user_id, expires_at, created_at
		FROM sessions WHERE token = ?
	`, token).Scan(&s.Token, &s.UserID, &expiresAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	s.ExpiresAt = fromUnixNano(expiresAt)
	s.CreatedAt = fromUnixNano(createdAt)
	return s, nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

var _ Store = (*SQLiteRepository)(nil)
