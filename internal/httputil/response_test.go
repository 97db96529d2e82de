package httputil

import (
  "encoding/json"
  "errors"
  "net/http"
  "net/http/httptest"
  "testing"

  "github.com/gin-gonic/gin"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
  "github.com/ninthgrid/ninthgrid-backend/internal/errordata"
)

func render(t *testing.T, fn func(c *gin.Context)) (*httptest.ResponseRecorder, Envelope, *errordata.ErrorData) {
  t.Helper()
  gin.SetMode(gin.TestMode)
  w := httptest.NewRecorder()
  c, _ := gin.CreateTestContext(w)
  req := httptest.NewRequest(http.MethodGet, "/", nil)
  ctx := errordata.WithErrorData(req.Context())
  c.Request = req.WithContext(ctx)
  fn(c)

  var env Envelope
  require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
  return w, env, errordata.GetErrorData(ctx)
}

func TestSuccessEnvelope(t *testing.T) {
  w, env, _ := render(t, func(c *gin.Context) {
    Success(c, http.StatusCreated, "created", gin.H{"id": "1"})
  })
  assert.Equal(t, http.StatusCreated, w.Code)
  assert.Equal(t, StatusSuccess, env.Status)
  assert.Equal(t, http.StatusCreated, env.Code)
  assert.Equal(t, "created", env.Message)
  assert.Equal(t, map[string]any{"id": "1"}, env.Data)
}

func TestFromErrorMapsKinds(t *testing.T) {
  cases := []struct {
    err  error
    code int
    msg  string
  }{
    {apperr.NotFound("File Not Found"), http.StatusNotFound, "File Not Found"},
    {apperr.Conflict("User already exists"), http.StatusConflict, "User already exists"},
    {apperr.InvalidOtp(), http.StatusBadRequest, "Invalid OTP"},
    {apperr.Unauthorized("Unauthorized"), http.StatusUnauthorized, "Unauthorized"},
    {errors.New("boom"), http.StatusInternalServerError, "boom"},
  }
  for _, tc := range cases {
    w, env, ed := render(t, func(c *gin.Context) { FromError(c, tc.err) })
    assert.Equal(t, tc.code, w.Code)
    assert.Equal(t, StatusError, env.Status)
    assert.Equal(t, tc.code, env.Code)
    assert.Equal(t, tc.msg, env.Message)
    assert.Nil(t, env.Data)
    assert.True(t, ed.HasMessage())
  }
}

func TestAbortStopsChain(t *testing.T) {
  w, env, ed := render(t, func(c *gin.Context) {
    Abort(c, http.StatusUnauthorized, "missing or invalid token")
    assert.True(t, c.IsAborted())
  })
  assert.Equal(t, http.StatusUnauthorized, w.Code)
  assert.Equal(t, "missing or invalid token", env.Message)
  assert.Equal(t, "missing or invalid token", ed.Message)
}
