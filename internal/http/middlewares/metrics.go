package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novasamatech/hydra-route-engine/internal/metrics"
)

// unmatchedRoute labels requests that hit no registered route, so path
// probing cannot grow the label set without bound.
const unmatchedRoute = "unmatched"

// MetricsMiddleware records request counts and latencies keyed by the route
// template rather than the raw URL: every /api/v1/quote request shares one
// series no matter which pair it asks about.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequests.WithLabelValues(method, route, status).Inc()
		metrics.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
