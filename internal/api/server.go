// Package api exposes digests and manual runs over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the gin engine with every route configured.
func NewServer(handler *Handler, log *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(requestLogger(log.With("component", "http")))
	r.Use(gin.Recovery())

	setupRoutes(r, handler)
	return r
}

func setupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	{
		api.GET("/profiles", h.ListProfiles)
		api.GET("/digests/latest", h.LatestDigest)
		api.GET("/digests/latest/top", h.LatestTop)
		api.GET("/digests/:id", h.GetDigest)
		api.POST("/runs", h.TriggerRun)
	}

	if h.reportsDir != "" {
		r.Static("/reports", h.reportsDir)
	}

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// requestLogger logs one line per request.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
