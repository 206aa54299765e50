package database

import "time"

// User is an account record. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewUser holds the fields supplied when registering an account.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
}

// Download is one immutable history row.
type Download struct {
	ID           int64     `json:"id"`
	UserID       *int64    `json:"userId"`
	VideoURL     string    `json:"videoUrl"`
	Platform     string    `json:"platform"`
	Title        *string   `json:"title"`
	Quality      *string   `json:"quality"`
	Format       *string   `json:"format"`
	DownloadedAt time.Time `json:"downloadedAt"`
}

// NewDownload is the insert payload for a Download. The id and timestamp are
// assigned by the store.
type NewDownload struct {
	UserID   *int64
	VideoURL string
	Platform string
	Title    *string
	Quality  *string
	Format   *string
}

// Session binds an opaque cookie token to a user until ExpiresAt.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
