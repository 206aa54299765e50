package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"vidsnap/internal/server/database"
	"vidsnap/internal/server/metrics"
	"vidsnap/internal/server/service"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports database connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains the HTTP handlers for the vidsnap API.
type Handler struct {
	videos       *service.VideoService
	history      *service.HistoryRecorder
	auth         *service.AuthService
	db           HealthChecker
	metrics      *metrics.Metrics
	secureCookie bool
}

// NewHandler creates a new handler with the given service dependencies.
func NewHandler(videos *service.VideoService, history *service.HistoryRecorder, auth *service.AuthService, db HealthChecker, m *metrics.Metrics, secureCookie bool) *Handler {
	return &Handler{
		videos:       videos,
		history:      history,
		auth:         auth,
		db:           db,
		metrics:      m,
		secureCookie: secureCookie,
	}
}

type videoInfoRequest struct {
	URL      string `json:"url" validate:"required,url"`
	Platform string `json:"platform" validate:"required,oneof=youtube tiktok facebook instagram"`
}

type videoDownloadRequest struct {
	VideoURL        string `json:"videoUrl" validate:"required,url"`
	Quality         string `json:"quality"`
	Format          string `json:"format"`
	RemoveWatermark bool   `json:"removeWatermark"`
	ConvertToMp3    bool   `json:"convertToMp3"`
	SaveToHistory   bool   `json:"saveToHistory"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleVideoInfo handles POST /api/video/info.
// Returns the formats available for a video.
func (h *Handler) HandleVideoInfo(c echo.Context) error {
	var req videoInfoRequest
	if err := bindRequest(c, &req); err != nil {
		return invalidRequest(c, err)
	}

	info, err := h.videos.Resolve(c.Request().Context(), req.URL, req.Platform)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch video information")
	}

	return c.JSON(http.StatusOK, info)
}

// HandleVideoDownload handles POST /api/video/download.
// Streams the selected format as an attachment.
func (h *Handler) HandleVideoDownload(c echo.Context) error {
	var req videoDownloadRequest
	if err := bindRequest(c, &req); err != nil {
		return invalidRequest(c, err)
	}

	ctx := c.Request().Context()
	user := currentUser(c)
	dl, err := h.videos.Download(ctx, service.DownloadRequest{
		VideoURL:        req.VideoURL,
		Quality:         req.Quality,
		Format:          req.Format,
		RemoveWatermark: req.RemoveWatermark,
		ConvertToMp3:    req.ConvertToMp3,
		SaveToHistory:   req.SaveToHistory,
	}, user)
	if err != nil {
		return mapServiceError(c, err, "Failed to download video")
	}
	defer dl.Close()

	if user != nil && req.SaveToHistory {
		h.metrics.ObserveHistoryWrite(dl.Record != nil)
	}
	kind := "video"
	if req.Format == "audio" {
		kind = "audio"
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, dl.ContentType)
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", dl.Filename))
	if dl.ContentLength > 0 {
		res.Header().Set(echo.HeaderContentLength, strconv.FormatInt(dl.ContentLength, 10))
	}
	res.WriteHeader(http.StatusOK)
	res.Flush()

	n, err := dl.Relay(res)
	if err != nil {
		if ctx.Err() != nil {
			h.metrics.ObserveDownload(kind, metrics.OutcomeDisconnected, n)
			slog.Info("client disconnected during download",
				"video_url", req.VideoURL,
				"bytes_sent", n,
			)
			return nil
		}
		// Headers are committed; all that is left is to drop the connection.
		h.metrics.ObserveDownload(kind, metrics.OutcomeAborted, n)
		slog.Error("download stream failed",
			"video_url", req.VideoURL,
			"bytes_sent", n,
			"error", err,
		)
		panic(http.ErrAbortHandler)
	}

	h.metrics.ObserveDownload(kind, metrics.OutcomeComplete, n)
	return nil
}

// HandleListDownloads handles GET /api/downloads.
// Returns the caller's download history.
func (h *Handler) HandleListDownloads(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return mapServiceError(c, service.ErrUnauthenticated, "")
	}

	downloads, err := h.history.List(c.Request().Context(), user.ID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch download history")
	}

	return c.JSON(http.StatusOK, downloads)
}

// HandleRegister handles POST /api/register.
func (h *Handler) HandleRegister(c echo.Context) error {
	var req registerRequest
	if err := bindRequest(c, &req); err != nil {
		return invalidRequest(c, err)
	}

	user, session, err := h.auth.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return mapServiceError(c, err, "Registration failed")
	}

	h.setSessionCookie(c, session)
	return c.JSON(http.StatusCreated, user)
}

// HandleLogin handles POST /api/login.
func (h *Handler) HandleLogin(c echo.Context) error {
	var req loginRequest
	if err := bindRequest(c, &req); err != nil {
		return invalidRequest(c, err)
	}

	user, session, err := h.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return mapServiceError(c, err, "Login failed")
	}

	h.setSessionCookie(c, session)
	return c.JSON(http.StatusOK, user)
}

// HandleLogout handles POST /api/logout.
func (h *Handler) HandleLogout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		if err := h.auth.Logout(c.Request().Context(), cookie.Value); err != nil {
			return mapServiceError(c, err, "Logout failed")
		}
	}

	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}

// HandleUser handles GET /api/user.
func (h *Handler) HandleUser(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return mapServiceError(c, service.ErrUnauthenticated, "")
	}
	return c.JSON(http.StatusOK, user)
}

// HandleHealth handles GET /health.
// Returns the health status of the server, including database connectivity.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	dbStatus := "connected"

	if err := h.db.HealthCheck(c.Request().Context()); err != nil {
		status = "degraded"
		dbStatus = fmt.Sprintf("error: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"database": dbStatus,
	})
}

// HandleMetrics handles GET /metrics.
// Returns server counters in the Prometheus text format.
func (h *Handler) HandleMetrics(c echo.Context) error {
	h.metrics.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}

func (h *Handler) setSessionCookie(c echo.Context, session *database.Session) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// mapServiceError translates service-layer errors into appropriate HTTP
// responses. fallback is the message for unexpected failures.
func mapServiceError(c echo.Context, err error, fallback string) error {
	var notImpl *service.NotImplementedError
	switch {
	case errors.As(err, &notImpl):
		slog.Info("feature not implemented", "path", c.Path(), "message", notImpl.Message)
		return c.JSON(http.StatusNotImplemented, echo.Map{"message": notImpl.Message})
	case errors.Is(err, service.ErrInvalidURL):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid YouTube URL"})
	case errors.Is(err, service.ErrUnsupportedPlatform):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Unsupported platform"})
	case errors.Is(err, service.ErrFormatNotFound):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Requested quality is not available"})
	case errors.Is(err, service.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid username or password"})
	case errors.Is(err, service.ErrUsernameTaken):
		return c.JSON(http.StatusConflict, echo.Map{"message": "Username already exists"})
	case errors.Is(err, service.ErrEmailTaken):
		return c.JSON(http.StatusConflict, echo.Map{"message": "Email already registered"})
	default:
		slog.Error("request failed", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": fallback})
	}
}
