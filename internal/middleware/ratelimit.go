package middleware

import (
  "net/http"
  "time"

  "github.com/didip/tollbooth/v6"
  "github.com/didip/tollbooth/v6/limiter"
  "github.com/gin-gonic/gin"

  "github.com/ninthgrid/ninthgrid-backend/internal/httputil"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
)

// RateLimit throttles per client IP. A non-positive rate disables it.
func RateLimit(perSecond float64, log *logger.Logger) gin.HandlerFunc {
  if perSecond <= 0 {
    return func(c *gin.Context) { c.Next() }
  }
  rlLog := log.With("middleware", "RateLimit")
  lmt := tollbooth.NewLimiter(perSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
  lmt.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
  lmt.SetMessage("too many requests")

  return func(c *gin.Context) {
    if httpErr := tollbooth.LimitByRequest(lmt, c.Writer, c.Request); httpErr != nil {
      rlLog.Warn("Rate limit hit", "path", c.FullPath(), "clientIP", c.ClientIP())
      httputil.Abort(c, http.StatusTooManyRequests, httpErr.Message)
      return
    }
    c.Next()
  }
}
