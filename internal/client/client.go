// Package client is a command-line client for a vidsnap server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

// FieldError mirrors one entry of a 400 response's errors list.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("server returned %d: %s (%s)", e.Status, e.Message, strings.Join(msgs, "; "))
}

// VideoInfo is the body of a successful info response.
type VideoInfo struct {
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	Duration  string   `json:"duration"`
	Platform  string   `json:"platform"`
	Formats   []Format `json:"formats"`
}

// Format is one downloadable encoding.
type Format struct {
	Quality      string `json:"quality"`
	AudioQuality string `json:"audioQuality"`
	Itag         int    `json:"itag"`
	MimeType     string `json:"mimeType"`
	Size         string `json:"size"`
}

// Client talks to the vidsnap HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// DownloadOptions select what Download asks the server for.
type DownloadOptions struct {
	URL     string
	Quality string
	Audio   bool
}

// Info lists the formats the server can stream for url.
func (c *Client) Info(ctx context.Context, url, platform string) (*VideoInfo, error) {
	resp, err := c.post(ctx, "/api/video/info", map[string]string{
		"url":      url,
		"platform": platform,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info VideoInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode video info: %w", err)
	}
	return &info, nil
}

// Download streams the requested format into store and returns the saved
// path and size.
func (c *Client) Download(ctx context.Context, opts DownloadOptions, store *FileStore) (string, int64, error) {
	format := "video"
	if opts.Audio {
		format = "audio"
	}

	resp, err := c.post(ctx, "/api/video/download", map[string]any{
		"videoUrl": opts.URL,
		"quality":  opts.Quality,
		"format":   format,
	})
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	name := attachmentName(resp.Header.Get("Content-Disposition"))
	if name == "" {
		ext := "mp4"
		if opts.Audio {
			ext = "mp3"
		}
		name = fmt.Sprintf("%d.%s", time.Now().UnixMilli(), ext)
	}

	return store.Save(name, resp.Body)
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}

	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body struct {
		Message string       `json:"message"`
		Errors  []FieldError `json:"errors"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Fields = body.Errors
	}
	return apiErr
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
