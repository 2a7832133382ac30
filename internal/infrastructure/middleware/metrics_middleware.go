package middleware

import (
	"time"

	"huddle/internal/infrastructure/monitoring"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware times every request and feeds the prometheus
// collector. Passing nil disables collection.
func MetricsMiddleware(collector *monitoring.PrometheusCollector) gin.HandlerFunc {
	if collector == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collector.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(started))
	}
}
