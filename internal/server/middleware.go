package server

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"winequality/internal/observability"
)

// requestLogger logs every request and records its status and latency.
func requestLogger(logger *slog.Logger, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.Latency.WithLabelValues(route).Observe(duration.Seconds())

		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", duration.Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}
