package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"example.com/community/services/events/internal/metrics"
)

// RequestMetrics records request counts, error counts and latency per route
func RequestMetrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		collector.IncrementCounter("http_requests")
		if c.Writer.Status() >= 500 {
			collector.IncrementCounter("http_errors")
		}
		collector.RecordTimer(fmt.Sprintf("http %s %s", c.Request.Method, route), time.Since(start))
	}
}
