// README: Prometheus middleware over the route template, not the raw path.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"reparto/internal/observability"
)

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// FullPath keeps label cardinality bounded; unmatched routes
		// collapse into one bucket.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		observability.HTTPRequestsTotal.
			WithLabelValues(c.Request.Method, path, status).Inc()
		observability.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}
