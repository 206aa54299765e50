package service

import (
	"context"
	"log/slog"
	"time"
)

// SessionSweeper periodically removes expired sessions.
type SessionSweeper struct {
	sessions SessionStore
	interval time.Duration
	done     chan struct{}
}

// NewSessionSweeper creates a new session sweeper.
func NewSessionSweeper(sessions SessionStore, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop in a background goroutine.
func (ss *SessionSweeper) Start(ctx context.Context) {
	slog.Info("session sweeper started", "interval", ss.interval)

	go func() {
		ticker := time.NewTicker(ss.interval)
		defer ticker.Stop()

		// Run once immediately on start
		ss.sweep(ctx)

		for {
			select {
			case <-ticker.C:
				ss.sweep(ctx)
			case <-ctx.Done():
				slog.Info("session sweeper stopping")
				close(ss.done)
				return
			}
		}
	}()
}

// Wait blocks until the sweeper has fully stopped.
func (ss *SessionSweeper) Wait() {
	<-ss.done
}

func (ss *SessionSweeper) sweep(ctx context.Context) {
	removed, err := ss.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("failed to delete expired sessions", "error", err)
		}
		return
	}
	slog.Info("session sweep complete", "removed", removed)
}
