package service

import (
	"context"
	"fmt"

	"vidsnap/internal/server/database"
)

// DownloadStore is the slice of the database the history recorder needs.
type DownloadStore interface {
	CreateDownload(ctx context.Context, download *database.NewDownload) (*database.Download, error)
	GetDownloadsByUserID(ctx context.Context, userID int64) ([]*database.Download, error)
}

// HistoryRecorder writes and reads per-user download history.
type HistoryRecorder struct {
	store DownloadStore
}

// NewHistoryRecorder creates a new history recorder.
func NewHistoryRecorder(store DownloadStore) *HistoryRecorder {
	return &HistoryRecorder{store: store}
}

// Record persists exactly one download row and returns it as stored.
func (h *HistoryRecorder) Record(ctx context.Context, download *database.NewDownload) (*database.Download, error) {
	saved, err := h.store.CreateDownload(ctx, download)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return saved, nil
}

// List returns all downloads owned by userID in insertion order.
func (h *HistoryRecorder) List(ctx context.Context, userID int64) ([]*database.Download, error) {
	downloads, err := h.store.GetDownloadsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return downloads, nil
}
