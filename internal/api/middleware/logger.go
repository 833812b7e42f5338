package middleware

import (
	"time"

	"masterspa/internal/logger"

	"github.com/gin-gonic/gin"
)

// Logger writes one line per request through the service logger.
func Logger(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		switch {
		case status >= 500:
			logger.Error("%s %s %d %s %s", c.Request.Method, path, status, latency, c.ClientIP())
		case status >= 400:
			logger.Warn("%s %s %d %s %s", c.Request.Method, path, status, latency, c.ClientIP())
		default:
			logger.Debug("%s %s %d %s %s", c.Request.Method, path, status, latency, c.ClientIP())
		}
	}
}
