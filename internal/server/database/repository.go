package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// Repository implements Store on top of a pgx pool.
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetUser(ctx context.Context, id int64) (*User, error) {
	return r.getUserWhere(ctx, "id = $1", id)
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return r.getUserWhere(ctx, "username = $1", username)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUserWhere(ctx, "email = $1", email)
}

func (r *Repository) getUserWhere(ctx context.Context, where string, arg any) (*User, error) {
	user := &User{}
	err := r.db.Pool.QueryRow(ctx,
		"SELECT id, username, email, password, created_at FROM users WHERE "+where, arg,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateUser inserts a user. Username or email collisions return ErrDuplicateUser.
func (r *Repository) CreateUser(ctx context.Context, nu *NewUser) (*User, error) {
	user := &User{Username: nu.Username, Email: nu.Email, PasswordHash: nu.PasswordHash}
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, nu.Username, nu.Email, nu.PasswordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUser, pgErr.ConstraintName)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// CreateDownload inserts one history row and returns it with its id and timestamp.
func (r *Repository) CreateDownload(ctx context.Context, nd *NewDownload) (*Download, error) {
	d := &Download{
		UserID:   nd.UserID,
		VideoURL: nd.VideoURL,
		Platform: nd.Platform,
		Title:    nd.Title,
		Quality:  nd.Quality,
		Format:   nd.Format,
	}
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO downloads (user_id, video_url, platform, title, quality, format)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, downloaded_at
	`,
		nd.UserID,
		nd.VideoURL,
		nd.Platform,
		nd.Title,
		nd.Quality,
		nd.Format,
	).Scan(&d.ID, &d.DownloadedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create download: %w", err)
	}
	return d, nil
}

// GetDownloadsByUserID returns every download owned by the user in insertion order.
func (r *Repository) GetDownloadsByUserID(ctx context.Context, userID int64) ([]*Download, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id, video_url, platform, title, quality, format, downloaded_at
		FROM downloads WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	downloads := []*Download{}
	for rows.Next() {
		d := &Download{}
		if err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.VideoURL,
			&d.Platform,
			&d.Title,
			&d.Quality,
			&d.Format,
			&d.DownloadedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

func (r *Repository) CreateSession(ctx context.Context, s *Session) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`, s.Token, s.UserID, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, token string) (*Session, error) {
	s := &Session{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT token, user_id, expires_at, created_at
		FROM sessions WHERE token = $1
	`, token).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.Pool.Exec(ctx, "DELETE FROM sessions WHERE token = $1", token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry and reports how many.
func (r *Repository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, "DELETE FROM sessions WHERE expires_at < NOW()")
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ Store = (*Repository)(nil)
