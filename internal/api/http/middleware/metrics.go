package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/issuetracker/issue-tracker/internal/metrics"
)

// Metrics records request latency labelled by the matched route template so
// project names do not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
