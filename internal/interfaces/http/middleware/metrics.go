package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/prometheus"
)

// Metrics instruments every request: count and duration by route, plus
// an in-flight gauge. The route template is used as the path label so
// /ships/:id stays one series regardless of the ID.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		m.HTTPActiveRequests.WithLabelValues(method, path).Inc()
		start := time.Now()

		c.Next()

		m.HTTPActiveRequests.WithLabelValues(method, path).Dec()
		prometheus.RecordHTTPRequest(m, method, path, c.Writer.Status(), time.Since(start))
	}
}
