package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"layup-scheduler/pkg/metrics"
)

// Metrics HTTP 请求耗时指标；路由取注册模板，未匹配路由记为 unmatched
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
