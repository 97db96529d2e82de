package db

import (
  "context"
  "fmt"
  "time"

  "go.mongodb.org/mongo-driver/v2/mongo"
  "go.mongodb.org/mongo-driver/v2/mongo/options"
  "go.mongodb.org/mongo-driver/v2/mongo/readpref"

  "github.com/ninthgrid/ninthgrid-backend/internal/config"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
)

type MongoService struct {
  client *mongo.Client
  db     *mongo.Database
  log    *logger.Logger
}

func NewMongoService(ctx context.Context, cfg config.MongoConfig, log *logger.Logger) (*MongoService, error) {
  serviceLog := log.With("service", "MongoService", "database", cfg.Database)
  serviceLog.Info("Attempting to connect to MongoDB now...")

  client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetServerSelectionTimeout(10 * time.Second))
  if err != nil {
    return nil, fmt.Errorf("failed to connect to mongo: %w", err)
  }
  pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
  defer cancel()
  if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
    _ = client.Disconnect(context.Background())
    serviceLog.Error("MongoDB ping failed", "error", err)
    return nil, fmt.Errorf("failed to ping mongo: %w", err)
  }
  serviceLog.Info("Successfully Connected to MongoDB :)")
  return &MongoService{client: client, db: client.Database(cfg.Database), log: serviceLog}, nil
}

func (s *MongoService) Database() *mongo.Database {
  return s.db
}

func (s *MongoService) Close(ctx context.Context) error {
  return s.client.Disconnect(ctx)
}
