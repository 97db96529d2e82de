package httputil

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
  "github.com/ninthgrid/ninthgrid-backend/internal/errordata"
)

const (
  StatusSuccess = "success"
  StatusError   = "error"
)

// Envelope is the body of every API response.
type Envelope struct {
  Status  string `json:"status"`
  Code    int    `json:"code"`
  Message string `json:"message"`
  Data    any    `json:"data,omitempty"`
}

func Success(c *gin.Context, code int, message string, data any) {
  c.JSON(code, Envelope{Status: StatusSuccess, Code: code, Message: message, Data: data})
}

func Error(c *gin.Context, code int, message string) {
  recordError(c, code, message)
  c.JSON(code, Envelope{Status: StatusError, Code: code, Message: message})
}

func Abort(c *gin.Context, code int, message string) {
  recordError(c, code, message)
  c.AbortWithStatusJSON(code, Envelope{Status: StatusError, Code: code, Message: message})
}

// FromError renders err with the status its kind maps to.
func FromError(c *gin.Context, err error) {
  if err == nil {
    Error(c, http.StatusInternalServerError, "unknown error")
    return
  }
  kind := apperr.KindOf(err)
  if ed := errordata.GetErrorData(c.Request.Context()); ed != nil {
    ed.SetMessage(kind.String(), err.Error())
  }
  code := apperr.HTTPStatus(err)
  msg := apperr.Message(err)
  c.JSON(code, Envelope{Status: StatusError, Code: code, Message: msg})
}

func recordError(c *gin.Context, code int, message string) {
  if ed := errordata.GetErrorData(c.Request.Context()); ed != nil && !ed.HasMessage() {
    ed.SetMessage(http.StatusText(code), message)
  }
}
