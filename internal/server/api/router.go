package api

import (
	"net/http"
	"slices"

	"vidsnap/internal/server/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and middleware.
func SetupRouter(handler *Handler, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewRequestValidator()

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		ExposeHeaders:    []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
		AllowCredentials: !slices.Contains(cfg.AllowedOrigins, "*"),
	}))
	e.Use(RequestLogger())
	e.Use(handler.metrics.Middleware())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(handler.Session())

	// Video and auth endpoints share one per-IP limiter
	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Health & metrics
	e.GET("/health", handler.HandleHealth)
	e.GET("/metrics", handler.HandleMetrics)

	// Video
	e.POST("/api/video/info", handler.HandleVideoInfo, limiter.Middleware())
	e.POST("/api/video/download", handler.HandleVideoDownload, limiter.Middleware())

	// History
	e.GET("/api/downloads", handler.HandleListDownloads)

	// Accounts
	e.POST("/api/register", handler.HandleRegister, limiter.Middleware())
	e.POST("/api/login", handler.HandleLogin, limiter.Middleware())
	e.POST("/api/logout", handler.HandleLogout)
	e.GET("/api/user", handler.HandleUser)

	return e
}
