package server

import (
  "net/http"

  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/ninthgrid/ninthgrid-backend/internal/handlers"
  "github.com/ninthgrid/ninthgrid-backend/internal/httputil"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/metrics"
  "github.com/ninthgrid/ninthgrid-backend/internal/middleware"
)

type RouterConfig struct {
  Log                   *logger.Logger
  APIPrefix             string
  CorsOrigins           []string
  RateLimitPerSecond    float64
  Metrics               *metrics.Metrics
  UserHandler           *handlers.UserHandler
  UploadHandler         *handlers.UploadHandler
  AuthMiddleware        *middleware.AuthMiddleware
  ProgressStreamHandler gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  handlers.RegisterValidators()
  router := gin.New()
  router.Use(gin.Recovery())
  router.Use(middleware.AttachRequestContext())
  router.Use(middleware.RequestLogger(cfg.Log))
  if cfg.Metrics != nil {
    router.Use(middleware.Metrics(cfg.Metrics))
  }

  //-----------------------------------------
  // Cors Setup
  //-----------------------------------------
  corsCfg := cors.Config{
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }
  if len(cfg.CorsOrigins) == 0 {
    corsCfg.AllowAllOrigins = true
    corsCfg.AllowCredentials = false
  } else {
    corsCfg.AllowOrigins = cfg.CorsOrigins
  }
  router.Use(cors.New(corsCfg))

  router.NoRoute(func(c *gin.Context) {
    httputil.Error(c, http.StatusNotFound, "route not found")
  })

  //-----------------------------------------
  // Health / Metrics
  //-----------------------------------------
  router.GET("/healthz", handlers.Healthz)
  if cfg.Metrics != nil {
    router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
  }

  prefix := cfg.APIPrefix
  if prefix == "" {
    prefix = "/api/v1"
  }
  api := router.Group(prefix)
  otpLimit := middleware.RateLimit(cfg.RateLimitPerSecond, cfg.Log)

  //-----------------------------------------
  // User
  //-----------------------------------------
  user := api.Group("/user")
  {
    user.POST("/signup", cfg.UserHandler.Signup)
    user.POST("/login", cfg.UserHandler.Login)
    user.PUT("/send-verification-code", otpLimit, cfg.AuthMiddleware.RequireAuth(), cfg.UserHandler.SendVerificationCode)
    user.POST("/validate-verification-code", otpLimit, cfg.UserHandler.ValidateVerificationCode)
    user.POST("/forgot-password", otpLimit, cfg.UserHandler.ForgotPassword)
    user.PUT("/reset-password/:id", cfg.UserHandler.ResetPassword)
  }

  //-----------------------------------------
  // Upload (protected)
  //-----------------------------------------
  upload := api.Group("/upload")
  {
    upload.POST("/new-file", cfg.AuthMiddleware.RequireAuth(), cfg.UploadHandler.NewFile)
    upload.GET("/get-progress/:id", cfg.AuthMiddleware.RequireAuth(), cfg.UploadHandler.GetProgress)
    upload.GET("/get-files", cfg.AuthMiddleware.RequireAuth(), cfg.UploadHandler.GetFiles)
    upload.DELETE("/delete-file/:id", cfg.AuthMiddleware.RequireAuth(), cfg.UploadHandler.DeleteFile)
    if cfg.ProgressStreamHandler != nil {
      upload.GET("/progress-stream/:id", cfg.AuthMiddleware.RequireAuthAllowQuery(), cfg.ProgressStreamHandler)
    }
  }

  return router
}
