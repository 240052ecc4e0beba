package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mobit-catalog/internal/metrics"
)

const (
	sessionCookie = "catalog_session"
	sessionKey    = "session_id"
)

// sessionMiddleware attaches the browser's catalog session, opening a new
// one when the cookie is missing or its session expired.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if id, err := c.Cookie(sessionCookie); err == nil && id != "" {
			if _, err := h.catalog.Session(ctx, id); err == nil {
				c.Set(sessionKey, id)
				c.Next()
				return
			}
		}

		session, err := h.catalog.OpenSession(ctx)
		if err != nil {
			h.logger.Error("failed to open session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not open a catalog session"})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, session.ID, 0, "/", "", false, true)
		c.Set(sessionKey, session.ID)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

// requestLogger logs one line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}

// observeRequests records request latency by route template
func observeRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
