package middleware

import (
	"time"

	"github.com/bhandras/agbridge/internal/logger"
	"github.com/gin-gonic/gin"
)

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		// Log format: [method] path?query - status (latency)
		if raw != "" {
			path = path + "?" + raw
		}

		// The real-time channel carries its token in the query string.
		if c.FullPath() == "/events" {
			path = c.Request.URL.Path
		}

		via := ""
		if c.GetBool(LoopbackKey) {
			via = " [loopback]"
		}

		if statusCode >= 500 {
			logger.Errorf("[%s] %s - %d (%v)%s", c.Request.Method, path, statusCode, latency, via)
			return
		}
		logger.Infof("[%s] %s - %d (%v)%s", c.Request.Method, path, statusCode, latency, via)
	}
}
