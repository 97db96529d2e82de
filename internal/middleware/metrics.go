package middleware

import (
  "time"

  "github.com/gin-gonic/gin"

  "github.com/ninthgrid/ninthgrid-backend/internal/metrics"
)

func Metrics(m *metrics.Metrics) gin.HandlerFunc {
  return func(c *gin.Context) {
    start := time.Now()
    c.Next()
    route := c.FullPath()
    if route == "" {
      route = "unmatched"
    }
    m.ObserveRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
  }
}
