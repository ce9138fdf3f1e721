package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"postnest/internal/logger"
)

// RequestLogger writes one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Error("http request", kv...)
		case status >= 400:
			logger.Warn("http request", kv...)
		default:
			logger.Info("http request", kv...)
		}
	}
}
