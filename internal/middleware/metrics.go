package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/transcript-api/internal/service"
)

// Metrics returns middleware that records request count and latency per route.
// Requests to the paths in skip are not recorded. When a handler recorded the
// document source of a parse, the route label carries it as a suffix so PDF,
// HTML and text uploads land in separate series.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start))
	}
}

func routeLabel(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		return "unmatched"
	}
	meta, _ := c.Get(responseMetaKey)
	if fields, ok := meta.(map[string]interface{}); ok {
		if source, ok := fields[sourceKey].(string); ok && source != "" {
			return route + ":" + source
		}
	}
	return route
}
