// Package provider talks to the upstream video host: it resolves metadata and
// opens media streams.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"vidsnap/internal/server/platform"

	"github.com/kkdai/youtube/v2"
)

var (
	ErrNoFormats      = errors.New("video has no downloadable formats")
	ErrFormatNotFound = errors.New("requested quality is not available")
)

// Client is the part of *youtube.Client the provider depends on.
type Client interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

var _ Client = (*youtube.Client)(nil)

// NewClient returns a youtube client that fetches streams in chunkSize pieces.
func NewClient(chunkSize int64) *youtube.Client {
	return &youtube.Client{ChunkSize: chunkSize}
}

// VideoInfo is the metadata returned to callers choosing a format.
type VideoInfo struct {
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Duration  string   `json:"duration"`
	Platform  string   `json:"platform"`
	Formats   []Format `json:"formats"`
}

// Format describes one encoding the provider offers.
type Format struct {
	Quality      string `json:"quality"`
	AudioQuality string `json:"audioQuality,omitempty"`
	Itag         int    `json:"itag"`
	MimeType     string `json:"mimeType"`
	Size         string `json:"size,omitempty"`
}

// StreamOptions select the format to stream.
type StreamOptions struct {
	Quality   string
	AudioOnly bool
}

// Stream is an open upstream media body. The caller must Close Body.
type Stream struct {
	Body          io.ReadCloser
	ContentLength int64
	Title         string
	MimeType      string
	Itag          int
}

// YouTube resolves and streams YouTube videos.
type YouTube struct {
	client Client
}

// NewYouTube creates a YouTube provider on top of client.
func NewYouTube(client Client) *YouTube {
	return &YouTube{client: client}
}

// ValidateURL reports whether rawURL is a YouTube video URL with a usable video id.
func (y *YouTube) ValidateURL(rawURL string) bool {
	_, ok := platform.YouTubeVideoID(rawURL)
	return ok
}

// GetInfo fetches the title, thumbnail, duration and every format of a video.
func (y *YouTube) GetInfo(ctx context.Context, rawURL string) (*VideoInfo, error) {
	video, err := y.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}

	info := &VideoInfo{
		Title:    video.Title,
		Duration: strconv.Itoa(int(video.Duration.Seconds())),
		Platform: platform.YouTube.String(),
		Formats:  make([]Format, 0, len(video.Formats)),
	}

	// Thumbnails are ordered smallest first.
	if n := len(video.Thumbnails); n > 0 {
		info.Thumbnail = video.Thumbnails[n-1].URL
	}

	for _, f := range video.Formats {
		entry := Format{
			Quality:      f.QualityLabel,
			AudioQuality: f.AudioQuality,
			Itag:         f.ItagNo,
			MimeType:     f.MimeType,
		}
		if f.ContentLength > 0 {
			entry.Size = strconv.FormatInt(f.ContentLength, 10)
		}
		info.Formats = append(info.Formats, entry)
	}

	return info, nil
}

// OpenStream resolves the video, picks a format and opens its byte stream.
// Reads from the returned body honour ctx cancellation.
func (y *YouTube) OpenStream(ctx context.Context, rawURL string, opts StreamOptions) (*Stream, error) {
	video, err := y.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}

	format, err := selectFormat(video.Formats, opts.Quality, opts.AudioOnly)
	if err != nil {
		return nil, err
	}

	body, size, err := y.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream for itag %d: %w", format.ItagNo, err)
	}

	return &Stream{
		Body:          body,
		ContentLength: size,
		Title:         video.Title,
		MimeType:      format.MimeType,
		Itag:          format.ItagNo,
	}, nil
}
