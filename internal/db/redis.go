package db

import (
  "context"
  "fmt"
  "time"

  "github.com/redis/go-redis/v9"

  "github.com/ninthgrid/ninthgrid-backend/internal/config"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
)

// NewRedisClient returns a pinged client shared by the progress store and the pub/sub relay.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
  log.Info("Attempting to connect to Redis now...", "address", cfg.Address)
  rdb := redis.NewClient(&redis.Options{
    Addr:     cfg.Address,
    Password: cfg.Password,
    DB:       cfg.DB,
  })
  pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
  defer cancel()
  if err := rdb.Ping(pingCtx).Err(); err != nil {
    _ = rdb.Close()
    return nil, fmt.Errorf("redis ping failed: %w", err)
  }
  log.Info("Successfully Connected to Redis :)")
  return rdb, nil
}
