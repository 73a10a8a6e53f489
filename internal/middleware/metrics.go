package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// UnmatchedRoute labels requests that hit no registered route, keeping label cardinality bounded.
const UnmatchedRoute = "unmatched"

const scrapePath = "/metrics"

type requestObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

// Metrics records duration and count per route template. Prometheus scrapes are not recorded.
func Metrics(observer requestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == scrapePath {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		if route == "" {
			route = UnmatchedRoute
		}
		observer.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
