package db

import (
  "fmt"
  "time"

  "gorm.io/driver/mysql"
  "gorm.io/driver/postgres"
  "gorm.io/gorm"
  gormlogger "gorm.io/gorm/logger"

  "github.com/ninthgrid/ninthgrid-backend/internal/config"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

type RelationalService struct {
  db  *gorm.DB
  log *logger.Logger
}

// GormConfig is shared by every relational connection: driver errors are translated
// (duplicate key -> gorm.ErrDuplicatedKey) and single statements skip the implicit transaction.
func GormConfig() *gorm.Config {
  return &gorm.Config{
    TranslateError:         true,
    SkipDefaultTransaction: true,
    Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
  }
}

func Dialector(cfg *config.Config) (gorm.Dialector, error) {
  switch cfg.Database {
  case config.DatabasePostgres:
    return postgres.Open(cfg.Postgres.DSN()), nil
  case config.DatabaseMySQL:
    return mysql.Open(cfg.MySQLDSN), nil
  default:
    return nil, fmt.Errorf("database %q is not relational", cfg.Database)
  }
}

func NewRelationalService(cfg *config.Config, log *logger.Logger) (*RelationalService, error) {
  serviceLog := log.With("service", "RelationalService", "database", cfg.Database)

  //1) Pick the dialector
  dialector, err := Dialector(cfg)
  if err != nil {
    return nil, err
  }

  //2) Attempt DB Connection
  serviceLog.Info("Attempting to connect to relational DB now...")
  db, err := gorm.Open(dialector, GormConfig())
  if err != nil {
    serviceLog.Error("Failed to connect to relational DB", "error", err)
    return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Database, err)
  }

  //3) Pool
  sqlDB, err := db.DB()
  if err != nil {
    return nil, fmt.Errorf("failed to get sql.DB: %w", err)
  }
  sqlDB.SetMaxOpenConns(25)
  sqlDB.SetMaxIdleConns(5)
  sqlDB.SetConnMaxLifetime(30 * time.Minute)
  if err := sqlDB.Ping(); err != nil {
    serviceLog.Error("Relational DB ping failed", "error", err)
    return nil, fmt.Errorf("failed to ping %s: %w", cfg.Database, err)
  }
  serviceLog.Info("Successfully Connected to relational DB :)")

  return &RelationalService{db: db, log: serviceLog}, nil
}

// AutoMigrateAll creates the users, otps and files tables and makes sure both
// foreign keys to users exist with ON DELETE CASCADE.
func (s *RelationalService) AutoMigrateAll() error {
  s.log.Info("Starting AutoMigrateAll for all GORM models now...")
  if err := s.db.AutoMigrate(&types.User{}, &types.OneTimePasscode{}, &types.File{}); err != nil {
    s.log.Error("AutoMigrateAll failed :(", "error", err)
    return err
  }

  s.log.Info("Configuring Foreign Key Relationships now...")
  migrator := s.db.Migrator()
  for _, fk := range []struct {
    model interface{}
    name  string
  }{
    {&types.OneTimePasscode{}, "User"},
    {&types.File{}, "User"},
  } {
    if migrator.HasConstraint(fk.model, fk.name) {
      continue
    }
    if err := migrator.CreateConstraint(fk.model, fk.name); err != nil {
      return fmt.Errorf("failed to add %T.%s foreign key: %w", fk.model, fk.name, err)
    }
  }
  s.log.Info("AutoMigrateAll completed successfully :)")
  return nil
}

func (s *RelationalService) DB() *gorm.DB {
  return s.db
}

func (s *RelationalService) Close() error {
  sqlDB, err := s.db.DB()
  if err != nil {
    return err
  }
  return sqlDB.Close()
}
