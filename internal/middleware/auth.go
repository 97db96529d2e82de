package middleware

import (
  "context"
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"

  "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
  "github.com/ninthgrid/ninthgrid-backend/internal/httputil"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/requestdata"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

// Authenticator resolves a bearer token to the user it was issued to.
type Authenticator interface {
  Authenticate(ctx context.Context, tokenString string) (*types.User, error)
}

type AuthMiddleware struct {
  log           *logger.Logger
  authenticator Authenticator
}

func NewAuthMiddleware(log *logger.Logger, authenticator Authenticator) *AuthMiddleware {
  middlewareLogger := log.With("middleware", "AuthMiddleware")
  return &AuthMiddleware{log: middlewareLogger, authenticator: authenticator}
}

// RequireAuth accepts only an Authorization: Bearer header.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
  return am.require(false)
}

// RequireAuthAllowQuery also accepts ?token=, for websocket upgrades where browsers cannot set headers.
func (am *AuthMiddleware) RequireAuthAllowQuery() gin.HandlerFunc {
  return am.require(true)
}

func (am *AuthMiddleware) require(allowQuery bool) gin.HandlerFunc {
  return func(c *gin.Context) {
    tokenString := extractBearer(c.GetHeader("Authorization"))
    if tokenString == "" && allowQuery {
      tokenString = c.Query("token")
    }
    if tokenString == "" {
      httputil.Abort(c, http.StatusUnauthorized, "missing or invalid token")
      return
    }

    ctx := c.Request.Context()
    user, err := am.authenticator.Authenticate(ctx, tokenString)
    if err != nil {
      am.log.Debug("Bearer token rejected", "path", c.FullPath(), "error", err)
      if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
        httputil.FromError(c, err)
        c.Abort()
        return
      }
      httputil.Abort(c, http.StatusUnauthorized, "Unauthorized")
      return
    }

    rd := requestdata.GetRequestData(ctx)
    if rd == nil {
      rd = &requestdata.RequestData{}
      c.Request = c.Request.WithContext(requestdata.WithRequestData(ctx, rd))
    }
    rd.TokenString = tokenString
    rd.UserID = user.ID
    rd.User = user
    c.Next()
  }
}

func extractBearer(header string) string {
  if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
    return strings.TrimSpace(header[7:])
  }
  return ""
}
