package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"postnest/internal/observability"
)

// unmatchedRoute labels requests no route claimed, so probing random paths
// cannot grow the label set.
const unmatchedRoute = "unmatched"

// Metrics records count and latency per route template, e.g.
// /like/:postId/:userId rather than /like/3/7.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		observability.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
