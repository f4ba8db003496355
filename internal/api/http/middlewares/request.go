package middlewares

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger логирует каждый запрос: метод, путь, статус, длительность, client IP, сессию.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		clientIP := c.ClientIP()
		method := c.Request.Method

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		attrs := []any{
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"ip", clientIP,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if sid := c.Writer.Header().Get(SessionHeader); sid != "" {
			attrs = append(attrs, "session", sid)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		log.Info("request", attrs...)
	}
}

// SessionHeader — заголовок с идентификатором клиентской сессии (в запросе и ответе).
const SessionHeader = "X-Session-ID"
