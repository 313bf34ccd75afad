package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	ctxLoggerKey    = "logger"
)

// slowRequestThreshold applies to plain JSON endpoints; streams are long by nature.
const slowRequestThreshold = 500 * time.Millisecond

// requestID reuses the caller's X-Request-ID or generates one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(headerRequestID, id)
		c.Set(headerRequestID, id)
		c.Next()
	}
}

// accessLog logs every request with timing and stores a request-scoped
// logger on the context.
func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := logger.With("request_id", c.GetString(headerRequestID))
		c.Set(ctxLoggerKey, reqLog)

		c.Next()

		duration := time.Since(start)
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", duration.Milliseconds(),
		}
		switch {
		case c.Writer.Status() >= 500:
			reqLog.Error("request failed", attrs...)
		case duration > slowRequestThreshold && c.Writer.Header().Get("Content-Type") != "text/event-stream":
			reqLog.Warn("slow request", attrs...)
		default:
			reqLog.Info("request completed", attrs...)
		}
	}
}

func loggerFrom(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if v, ok := c.Get(ctxLoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return fallback
}
