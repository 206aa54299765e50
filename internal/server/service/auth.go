package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vidsnap/internal/server/database"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the slice of the database account handling needs.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*database.User, error)
	GetUserByUsername(ctx context.Context, username string) (*database.User, error)
	GetUserByEmail(ctx context.Context, email string) (*database.User, error)
	CreateUser(ctx context.Context, user *database.NewUser) (*database.User, error)
}

// SessionStore persists login sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *database.Session) error
	GetSession(ctx context.Context, token string) (*database.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// AuthService registers users and manages their sessions.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

// NewAuthService creates a new auth service whose sessions live for ttl.
func NewAuthService(users UserStore, sessions SessionStore, ttl time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// Register creates an account and logs it in.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*database.User, *database.Session, error) {
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, nil, ErrUsernameTaken
	} else if !errors.Is(err, database.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, &database.NewUser{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, database.ErrDuplicateUser) {
			return nil, nil, s.takenError(ctx, username)
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	session, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, session, nil
}

// Login checks credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*database.User, *database.Session, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user logged in", "user_id", user.ID)
	return user, session, nil
}

// Logout ends the session identified by token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// Authenticate resolves a session token to its user. Missing, unknown and
// expired tokens all yield ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*database.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if !s.now().Before(session.ExpiresAt) {
		if err := s.sessions.DeleteSession(ctx, token); err != nil {
			slog.Warn("failed to delete expired session", "user_id", session.UserID, "error", err)
		}
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return user, nil
}

// takenError names the unique field a concurrent registration claimed first.
func (s *AuthService) takenError(ctx context.Context, username string) error {
	if _, err := s.users.GetUserByUsername(ctx, username); errors.Is(err, database.ErrUserNotFound) {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}

func (s *AuthService) startSession(ctx context.Context, userID int64) (*database.Session, error) {
	now := s.now().UTC()
	session := &database.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return session, nil
}
