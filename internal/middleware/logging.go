package middleware

import (
  "time"

  "github.com/gin-gonic/gin"

  "github.com/ninthgrid/ninthgrid-backend/internal/errordata"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/requestdata"
)

// RequestLogger logs one line per request once the handler chain is done.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
  reqLog := log.With("middleware", "RequestLogger")
  return func(c *gin.Context) {
    start := time.Now()
    c.Next()

    status := c.Writer.Status()
    kv := []interface{}{
      "method", c.Request.Method,
      "path", c.Request.URL.Path,
      "status", status,
      "latency", time.Since(start),
      "clientIP", c.ClientIP(),
    }
    ctx := c.Request.Context()
    if rd := requestdata.GetRequestData(ctx); rd != nil {
      kv = append(kv, "requestID", rd.RequestID)
      if rd.Authenticated() {
        kv = append(kv, "userID", rd.UserID)
      }
    }
    if ed := errordata.GetErrorData(ctx); ed != nil && ed.HasMessage() {
      kv = append(kv, "errorKind", ed.Kind, "error", ed.Message)
    }

    switch {
    case status >= 500:
      reqLog.Error("Request failed", kv...)
    case status >= 400:
      reqLog.Warn("Request rejected", kv...)
    default:
      reqLog.Info("Request handled", kv...)
    }
  }
}
