package main

import (
  "context"
  "errors"
  "fmt"
  "net/http"
  "os/signal"
  "syscall"
  "time"

  "github.com/ninthgrid/ninthgrid-backend/internal/config"
  "github.com/ninthgrid/ninthgrid-backend/internal/db"
  "github.com/ninthgrid/ninthgrid-backend/internal/handlers"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/metrics"
  "github.com/ninthgrid/ninthgrid-backend/internal/middleware"
  "github.com/ninthgrid/ninthgrid-backend/internal/progress"
  "github.com/ninthgrid/ninthgrid-backend/internal/repos"
  "github.com/ninthgrid/ninthgrid-backend/internal/server"
  "github.com/ninthgrid/ninthgrid-backend/internal/services"
  "github.com/ninthgrid/ninthgrid-backend/internal/socket"
  "github.com/ninthgrid/ninthgrid-backend/internal/storage"
  "github.com/ninthgrid/ninthgrid-backend/internal/token"
)

const shutdownTimeout = 20 * time.Second

type closer func(ctx context.Context) error

// openPersistence is the only place DATABASE_CHOICE is looked at.
func openPersistence(ctx context.Context, cfg *config.Config, log *logger.Logger, migrate bool) (*repos.Repos, []closer, error) {
  switch cfg.Database {
  case config.DatabasePostgres, config.DatabaseMySQL:
    rel, err := db.NewRelationalService(cfg, log)
    if err != nil {
      return nil, nil, err
    }
    closers := []closer{func(context.Context) error { return rel.Close() }}
    if migrate {
      if err := rel.AutoMigrateAll(); err != nil {
        return nil, closers, err
      }
    }
    return repos.NewGormRepos(rel.DB(), log), closers, nil

  case config.DatabaseMongo:
    ms, err := db.NewMongoService(ctx, cfg.Mongo, log)
    if err != nil {
      return nil, nil, err
    }
    closers := []closer{ms.Close}
    if migrate {
      if err := repos.EnsureMongoIndexes(ctx, ms.Database()); err != nil {
        return nil, closers, fmt.Errorf("creating mongo indexes: %w", err)
      }
    }
    return repos.NewMongoRepos(ms.Database(), log), closers, nil

  case config.DatabaseMemory:
    log.Warn("Using in-memory persistence; data is lost on restart")
    return repos.NewMemoryRepos(log), nil, nil

  default:
    return nil, nil, fmt.Errorf("unsupported DATABASE_CHOICE %q", cfg.Database)
  }
}

func openBucket(ctx context.Context, cfg *config.Config, log *logger.Logger) (storage.Bucket, []closer, error) {
  switch cfg.Cloud {
  case config.CloudGCP:
    b, err := storage.NewGCSBucket(ctx, cfg.GCS.Bucket, cfg.GCS.CredentialsFile, cfg.UploadChunkSize, log)
    if err != nil {
      return nil, nil, err
    }
    return b, []closer{func(context.Context) error { return b.Close() }}, nil
  case config.CloudAWS:
    b, err := storage.NewS3Bucket(ctx, cfg.S3, log)
    if err != nil {
      return nil, nil, err
    }
    return b, nil, nil
  default:
    return nil, nil, fmt.Errorf("unsupported CLOUD_UPLOAD_OPTION %q", cfg.Cloud)
  }
}

// openProgress returns the progress store and wires live fan-out into hub.
// Without redis the store is process-local, which is only accepted for in-memory persistence.
func openProgress(ctx context.Context, cfg *config.Config, hub *socket.Hub, log *logger.Logger) (progress.Store, []closer, error) {
  rdb, err := db.NewRedisClient(ctx, cfg.Redis, log)
  if err != nil {
    if cfg.Database != config.DatabaseMemory {
      return nil, nil, err
    }
    log.Warn("Redis unavailable, keeping upload progress in memory", "error", err)
    return socket.NewProgressRelay(progress.NewMemoryStore(cfg.ProgressTTL), hub), nil, nil
  }

  closers := []closer{func(context.Context) error { return rdb.Close() }}
  rp := socket.NewRedisPubSub(log, rdb, cfg.Redis.Channel)
  if err := rp.StartSubscriber(hub); err != nil {
    return nil, closers, err
  }
  hub.SetRedisPubSub(rp)
  closers = append(closers, func(context.Context) error { rp.Stop(); return nil })

  return progress.NewRedisStore(rdb, cfg.ProgressTTL, cfg.Redis.Channel, log), closers, nil
}

func runMigrate(cfg *config.Config, log *logger.Logger) error {
  ctx := context.Background()
  _, closers, err := openPersistence(ctx, cfg, log, true)
  defer runClosers(closers, log)
  if err != nil {
    return err
  }
  log.Info("Migration complete :)", "database", cfg.Database)
  return nil
}

func runServe(cfg *config.Config, log *logger.Logger) error {
  ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
  defer stop()

  var closers []closer
  defer func() { runClosers(closers, log) }()

  //1) Persistence
  log.Info("Setting Up Persistence from Main now...", "database", cfg.Database)
  r, cs, err := openPersistence(ctx, cfg, log, true)
  closers = append(closers, cs...)
  if err != nil {
    return err
  }

  //2) Progress store + websocket hub
  hub := socket.NewHub(log)
  store, cs, err := openProgress(ctx, cfg, hub, log)
  closers = append(closers, cs...)
  if err != nil {
    return err
  }

  //3) Object storage
  bucket, cs, err := openBucket(ctx, cfg, log)
  closers = append(closers, cs...)
  if err != nil {
    return err
  }
  gateway := storage.NewGateway(bucket, store, cfg.UploadChunkSize, log)

  //4) Services
  m := metrics.New()
  tokens := token.NewManager(cfg.AccessSecret, cfg.AccessTokenTTL, cfg.OtpTokenTTL)

  var email services.EmailService
  if cfg.SendGrid.APIKey != "" {
    if email, err = services.NewEmailService(log, cfg.SendGrid); err != nil {
      return err
    }
  }
  var text services.TextService
  if cfg.Twilio.AccountSID != "" {
    if text, err = services.NewTextService(log, cfg.Twilio); err != nil {
      return err
    }
  }
  var avatars services.AvatarService
  if cfg.AvatarsEnabled {
    if avatars, err = services.NewAvatarService(log, gateway); err != nil {
      return err
    }
  }

  accounts := services.NewAccountService(log, services.AccountDeps{
    UserRepo:       r.User,
    OtpRepo:        r.Otp,
    Tokens:         tokens,
    Avatars:        avatars,
    Notifier:       services.NewOtpNotifier(log, email, text),
    Metrics:        m,
    OtpMaxAttempts: cfg.OtpMaxAttempts,
  })
  uploads := services.NewUploadService(log, r.File, gateway, store, m)

  //5) HTTP
  router := server.NewRouter(server.RouterConfig{
    Log:                   log,
    APIPrefix:             cfg.APIPrefix,
    CorsOrigins:           cfg.CorsOrigins,
    RateLimitPerSecond:    cfg.RateLimitPerSecond,
    Metrics:               m,
    UserHandler:           handlers.NewUserHandler(accounts),
    UploadHandler:         handlers.NewUploadHandler(log, uploads, handlers.UploadHandlerConfig{
      UploadDir: cfg.UploadDir,
      MaxBytes:  cfg.UploadMaxBytes,
      Folder:    cfg.UploadFolder,
    }),
    AuthMiddleware:        middleware.NewAuthMiddleware(log, accounts),
    ProgressStreamHandler: handlers.ProgressStreamHandler(hub, store, log),
  })
  srv := &http.Server{
    Addr:              ":" + cfg.Port,
    Handler:           router,
    ReadHeaderTimeout: 10 * time.Second,
  }

  errCh := make(chan error, 1)
  go func() {
    log.Info("Server Listening :)", "addr", srv.Addr)
    if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
      errCh <- err
    }
    close(errCh)
  }()

  select {
  case err := <-errCh:
    return err
  case <-ctx.Done():
  }
  log.Info("Shutting down server now...")
  shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
  defer cancel()
  return srv.Shutdown(shutdownCtx)
}

func runClosers(closers []closer, log *logger.Logger) {
  ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
  defer cancel()
  for i := len(closers) - 1; i >= 0; i-- {
    if err := closers[i](ctx); err != nil {
      log.Warn("Shutdown step failed", "error", err)
    }
  }
}
