package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"vidsnap/internal/server/database"
	"vidsnap/internal/server/platform"
	"vidsnap/internal/server/provider"
)

// VideoProvider resolves and streams videos from one upstream host.
type VideoProvider interface {
	ValidateURL(rawURL string) bool
	GetInfo(ctx context.Context, rawURL string) (*provider.VideoInfo, error)
	OpenStream(ctx context.Context, rawURL string, opts provider.StreamOptions) (*provider.Stream, error)
}

// DownloadRequest is a validated download request body.
type DownloadRequest struct {
	VideoURL        string
	Quality         string
	Format          string
	RemoveWatermark bool
	ConvertToMp3    bool
	SaveToHistory   bool
}

// Download is an open relay: framing metadata plus the upstream body.
// The caller must Close it.
type Download struct {
	Filename      string
	ContentType   string
	ContentLength int64
	Title         string
	Record        *database.Download // nil when history was not saved

	body io.ReadCloser
}

// Relay copies the upstream body to w until EOF, an upstream error, or
// cancellation of the request context.
func (d *Download) Relay(w io.Writer) (int64, error) {
	return io.Copy(w, d.body)
}

// Close releases the upstream connection.
func (d *Download) Close() error {
	return d.body.Close()
}

// VideoService implements format resolution and the download pipeline.
type VideoService struct {
	youtube VideoProvider
	history *HistoryRecorder
	now     func() time.Time
}

// NewVideoService creates a new video service.
func NewVideoService(youtube VideoProvider, history *HistoryRecorder) *VideoService {
	return &VideoService{
		youtube: youtube,
		history: history,
		now:     time.Now,
	}
}

// Resolve returns the formats available for rawURL on the named platform.
func (s *VideoService) Resolve(ctx context.Context, rawURL, platformName string) (*provider.VideoInfo, error) {
	p, ok := platform.ParsePlatform(platformName)
	if !ok {
		return nil, ErrUnsupportedPlatform
	}

	switch p {
	case platform.YouTube:
		if !s.youtube.ValidateURL(rawURL) {
			return nil, ErrInvalidURL
		}
		info, err := s.youtube.GetInfo(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		return info, nil
	case platform.TikTok:
		return nil, notImplemented("TikTok downloads temporarily unavailable, we are working on it!")
	default:
		return nil, notImplemented(fmt.Sprintf("%s downloads coming soon", p))
	}
}

// Download opens the upstream stream for req and, when user is non-nil and
// opted in, records one history row before any bytes are relayed. A failed
// history write is logged and does not fail the download.
func (s *VideoService) Download(ctx context.Context, req DownloadRequest, user *database.User) (*Download, error) {
	if platform.Classify(req.VideoURL) != platform.YouTube {
		return nil, notImplemented("Download for this platform not yet implemented")
	}

	if req.RemoveWatermark || req.ConvertToMp3 {
		slog.Debug("advanced download options accepted but not applied",
			"remove_watermark", req.RemoveWatermark,
			"convert_to_mp3", req.ConvertToMp3,
		)
	}

	audio := req.Format == "audio"
	stream, err := s.youtube.OpenStream(ctx, req.VideoURL, provider.StreamOptions{
		Quality:   req.Quality,
		AudioOnly: audio,
	})
	if err != nil {
		if errors.Is(err, provider.ErrFormatNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrFormatNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	ext, contentType := "mp4", "video/mp4"
	if audio {
		ext, contentType = "mp3", "audio/mpeg"
	}

	dl := &Download{
		Filename:      fmt.Sprintf("%d.%s", s.now().UnixMilli(), ext),
		ContentType:   contentType,
		ContentLength: stream.ContentLength,
		Title:         stream.Title,
		body:          &contextReader{ctx: ctx, rc: stream.Body},
	}

	if user != nil && req.SaveToHistory {
		record, err := s.history.Record(ctx, &database.NewDownload{
			UserID:   &user.ID,
			VideoURL: req.VideoURL,
			Platform: platform.YouTube.String(),
			Title:    &stream.Title,
			Quality:  stringOr(req.Quality, "default"),
			Format:   stringOr(req.Format, "mp4"),
		})
		if err != nil {
			slog.Error("failed to save download history",
				"user_id", user.ID,
				"video_url", req.VideoURL,
				"error", err,
			)
		} else {
			dl.Record = record
		}
	}

	slog.Info("download started",
		"video_url", req.VideoURL,
		"itag", stream.Itag,
		"mime_type", stream.MimeType,
		"declared_type", contentType,
		"history_saved", dl.Record != nil,
	)

	return dl, nil
}

// contextReader stops reading from rc once ctx is done, so a disconnected
// client never keeps pulling bytes from upstream.
type contextReader struct {
	ctx context.Context
	rc  io.ReadCloser
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.rc.Read(p)
}

func (r *contextReader) Close() error {
	return r.rc.Close()
}

func stringOr(s, fallback string) *string {
	if s == "" {
		s = fallback
	}
	return &s
}
