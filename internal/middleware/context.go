package middleware

import (
  "regexp"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/ninthgrid/ninthgrid-backend/internal/errordata"
  "github.com/ninthgrid/ninthgrid-backend/internal/requestdata"
)

const RequestIDHeader = "X-Request-ID"

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// AttachRequestContext seeds the request and error carriers. A well-formed
// X-Request-ID from the caller is kept, otherwise a new one is generated.
func AttachRequestContext() gin.HandlerFunc {
  return func(c *gin.Context) {
    reqID := c.GetHeader(RequestIDHeader)
    if !requestIDPattern.MatchString(reqID) {
      reqID = uuid.NewString()
    }
    c.Header(RequestIDHeader, reqID)

    ctx := errordata.WithErrorData(c.Request.Context())
    ctx = requestdata.WithRequestData(ctx, &requestdata.RequestData{RequestID: reqID})
    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }
}
