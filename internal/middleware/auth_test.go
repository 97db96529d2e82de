package middleware

import (
  "context"
  "errors"
  "net/http"
  "net/http/httptest"
  "testing"

  "github.com/gin-gonic/gin"
  "github.com/stretchr/testify/assert"

  "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/requestdata"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

type stubAuthenticator struct {
  tokens map[string]*types.User
  err    error
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, tokenString string) (*types.User, error) {
  if s.err != nil {
    return nil, s.err
  }
  if u, ok := s.tokens[tokenString]; ok {
    return u, nil
  }
  return nil, apperr.Unauthorized("Unauthorized")
}

func newAuthRouter(auth Authenticator, allowQuery bool) *gin.Engine {
  gin.SetMode(gin.TestMode)
  am := NewAuthMiddleware(logger.Nop(), auth)
  r := gin.New()
  r.Use(AttachRequestContext())
  guard := am.RequireAuth()
  if allowQuery {
    guard = am.RequireAuthAllowQuery()
  }
  r.GET("/me", guard, func(c *gin.Context) {
    rd := requestdata.GetRequestData(c.Request.Context())
    c.String(http.StatusOK, rd.UserID)
  })
  return r
}

func TestRequireAuth(t *testing.T) {
  auth := &stubAuthenticator{tokens: map[string]*types.User{"good": {ID: "user-1"}}}
  r := newAuthRouter(auth, false)

  cases := []struct {
    name   string
    header string
    target string
    code   int
  }{
    {"valid bearer", "Bearer good", "/me", http.StatusOK},
    {"lowercase scheme", "bearer good", "/me", http.StatusOK},
    {"missing header", "", "/me", http.StatusUnauthorized},
    {"wrong scheme", "Basic good", "/me", http.StatusUnauthorized},
    {"unknown token", "Bearer stale", "/me", http.StatusUnauthorized},
    {"query token not accepted", "", "/me?token=good", http.StatusUnauthorized},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      w := httptest.NewRecorder()
      req := httptest.NewRequest(http.MethodGet, tc.target, nil)
      if tc.header != "" {
        req.Header.Set("Authorization", tc.header)
      }
      r.ServeHTTP(w, req)
      assert.Equal(t, tc.code, w.Code)
      if tc.code == http.StatusOK {
        assert.Equal(t, "user-1", w.Body.String())
      } else {
        assert.Contains(t, w.Body.String(), `"status":"error"`)
      }
    })
  }
}

func TestRequireAuthAllowQuery(t *testing.T) {
  auth := &stubAuthenticator{tokens: map[string]*types.User{"good": {ID: "user-1"}}}
  r := newAuthRouter(auth, true)

  w := httptest.NewRecorder()
  r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token=good", nil))
  assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuthSurfacesBackendFailure(t *testing.T) {
  auth := &stubAuthenticator{err: apperr.Upstream("user lookup failed", errors.New("connection refused"))}
  r := newAuthRouter(auth, false)

  w := httptest.NewRecorder()
  req := httptest.NewRequest(http.MethodGet, "/me", nil)
  req.Header.Set("Authorization", "Bearer good")
  r.ServeHTTP(w, req)
  assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimit(t *testing.T) {
  gin.SetMode(gin.TestMode)
  r := gin.New()
  r.Use(RateLimit(1, logger.Nop()))
  r.GET("/otp", func(c *gin.Context) { c.Status(http.StatusNoContent) })

  first := httptest.NewRecorder()
  r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/otp", nil))
  second := httptest.NewRecorder()
  r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/otp", nil))

  assert.Equal(t, http.StatusNoContent, first.Code)
  assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimitDisabled(t *testing.T) {
  gin.SetMode(gin.TestMode)
  r := gin.New()
  r.Use(RateLimit(0, logger.Nop()))
  r.GET("/otp", func(c *gin.Context) { c.Status(http.StatusNoContent) })
  for i := 0; i < 5; i++ {
    w := httptest.NewRecorder()
    r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/otp", nil))
    assert.Equal(t, http.StatusNoContent, w.Code)
  }
}

func TestAttachRequestContextRequestID(t *testing.T) {
  gin.SetMode(gin.TestMode)
  r := gin.New()
  r.Use(AttachRequestContext())
  r.GET("/id", func(c *gin.Context) {
    rd := requestdata.GetRequestData(c.Request.Context())
    assert.False(t, rd.Authenticated())
    c.String(http.StatusOK, rd.RequestID)
  })

  w := httptest.NewRecorder()
  req := httptest.NewRequest(http.MethodGet, "/id", nil)
  req.Header.Set(RequestIDHeader, "client-trace-1")
  r.ServeHTTP(w, req)
  assert.Equal(t, "client-trace-1", w.Body.String())
  assert.Equal(t, "client-trace-1", w.Header().Get(RequestIDHeader))

  w = httptest.NewRecorder()
  req = httptest.NewRequest(http.MethodGet, "/id", nil)
  req.Header.Set(RequestIDHeader, "bad id with spaces")
  r.ServeHTTP(w, req)
  assert.NotEqual(t, "bad id with spaces", w.Body.String())
  assert.Len(t, w.Body.String(), 36)
}
