package config

import (
  "fmt"
  "strings"
  "time"

  "github.com/joho/godotenv"

  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/utils"
)

type DatabaseChoice string

const (
  DatabasePostgres DatabaseChoice = "POSTGRES"
  DatabaseMySQL    DatabaseChoice = "MYSQL"
  DatabaseMongo    DatabaseChoice = "MONGODB"
  DatabaseMemory   DatabaseChoice = "MEMORY"
)

type CloudOption string

const (
  CloudGCP CloudOption = "GCP"
  CloudAWS CloudOption = "AWS"
)

type Config struct {
  Port        string
  LogMode     string
  APIPrefix   string
  CorsOrigins []string

  Database DatabaseChoice
  Postgres PostgresConfig
  MySQLDSN string
  Mongo    MongoConfig
  Redis    RedisConfig

  AccessSecret   string
  AccessTokenTTL time.Duration
  OtpTokenTTL    time.Duration
  OtpMaxAttempts int

  Cloud CloudOption
  GCS   GCSConfig
  S3    S3Config

  UploadDir       string
  UploadFolder    string
  UploadMaxBytes  int64
  UploadChunkSize int
  ProgressTTL     time.Duration

  SendGrid       SendGridConfig
  Twilio         TwilioConfig
  AvatarsEnabled bool

  RateLimitPerSecond float64
}

type PostgresConfig struct {
  Host     string
  Port     string
  User     string
  Password string
  Name     string
  SSLMode  string
}

func (p PostgresConfig) DSN() string {
  return fmt.Sprintf(
    "host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
    p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode,
  )
}

type MongoConfig struct {
  URI      string
  Database string
}

type RedisConfig struct {
  Address  string
  Password string
  DB       int
  Channel  string
}

type GCSConfig struct {
  Bucket          string
  ProjectID       string
  CredentialsFile string
}

type S3Config struct {
  Bucket          string
  Region          string
  Endpoint        string
  AccessKeyID     string
  SecretAccessKey string
  UsePathStyle    bool
}

type SendGridConfig struct {
  APIKey    string
  FromEmail string
  FromName  string
}

type TwilioConfig struct {
  AccountSID string
  AuthToken  string
  FromNumber string
}

const year = 365 * 24 * time.Hour

// Load reads .env (when present) and the process environment.
func Load(log *logger.Logger) (*Config, error) {
  log = log.With("component", "config")
  log.Info("Attempting to load configuration now...")
  if err := godotenv.Load(); err != nil {
    log.Debug("No .env file loaded, relying on process environment", "error", err)
  }

  cfg := &Config{
    Port:        utils.GetEnv("PORT", "8080", log),
    LogMode:     utils.GetEnv("LOG_MODE", "development", log),
    APIPrefix:   utils.GetEnv("API_PREFIX", "/api/v1", log),
    CorsOrigins: utils.GetEnvAsSlice("CORS_ORIGINS", []string{"http://localhost:3000"}, log),

    Database: DatabaseChoice(strings.ToUpper(utils.GetEnv("DATABASE_CHOICE", string(DatabasePostgres), log))),
    Postgres: PostgresConfig{
      Host:     utils.GetEnv("POSTGRES_HOST", "localhost", log),
      Port:     utils.GetEnv("POSTGRES_PORT", "5432", log),
      User:     utils.GetEnv("POSTGRES_USER", "postgres", log),
      Password: utils.GetEnv("POSTGRES_PASSWORD", "", log),
      Name:     utils.GetEnv("POSTGRES_NAME", "ninthgrid", log),
      SSLMode:  utils.GetEnv("POSTGRES_SSLMODE", "disable", log),
    },
    MySQLDSN: utils.GetEnv("MYSQL_DSN", "root:@tcp(127.0.0.1:3306)/ninthgrid?charset=utf8mb4&parseTime=True&loc=UTC", log),
    Mongo: MongoConfig{
      URI:      utils.GetEnv("MONGO_URI", "mongodb://localhost:27017", log),
      Database: utils.GetEnv("MONGO_DATABASE", "ninthgrid", log),
    },
    Redis: RedisConfig{
      Address:  utils.GetEnv("REDIS_ADDRESS", "localhost:6379", log),
      Password: utils.GetEnv("REDIS_PASSWORD", "", log),
      DB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
      Channel:  utils.GetEnv("REDIS_PROGRESS_CHANNEL", "upload_progress", log),
    },

    AccessSecret:   utils.GetEnv("ACCESS_SECRET", "", log),
    AccessTokenTTL: time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", int(year/time.Second), log)) * time.Second,
    OtpTokenTTL:    time.Duration(utils.GetEnvAsInt("OTP_TOKEN_TTL", 900, log)) * time.Second,
    OtpMaxAttempts: utils.GetEnvAsInt("OTP_MAX_ATTEMPTS", 20, log),

    Cloud: CloudOption(strings.ToUpper(utils.GetEnv("CLOUD_UPLOAD_OPTION", string(CloudGCP), log))),
    GCS: GCSConfig{
      Bucket:          utils.GetEnv("GOOGLE_BUCKET_NAME", "", log),
      ProjectID:       utils.GetEnv("GCP_PROJECT_ID", "", log),
      CredentialsFile: utils.GetEnv("GOOGLE_BUCKET_KEY_JSON", "", log),
    },
    S3: S3Config{
      Bucket:          utils.GetEnv("S3_BUCKET", "", log),
      Region:          utils.GetEnv("S3_REGION", "us-east-1", log),
      Endpoint:        utils.GetEnv("S3_ENDPOINT", "", log),
      AccessKeyID:     utils.GetEnv("S3_ACCESS_KEY_ID", "", log),
      SecretAccessKey: utils.GetEnv("S3_SECRET_ACCESS_KEY", "", log),
      UsePathStyle:    utils.GetEnvAsBool("S3_USE_PATH_STYLE", false, log),
    },

    UploadDir:       utils.GetEnv("UPLOAD_DIR", "./file-uploads", log),
    UploadFolder:    utils.GetEnv("UPLOAD_FOLDER", "", log),
    UploadMaxBytes:  int64(utils.GetEnvAsInt("UPLOAD_MAX_BYTES", 200*1024*1024, log)),
    UploadChunkSize: utils.GetEnvAsInt("UPLOAD_CHUNK_SIZE", 256*1024, log),
    ProgressTTL:     time.Duration(utils.GetEnvAsInt("PROGRESS_TTL", 300, log)) * time.Second,

    SendGrid: SendGridConfig{
      APIKey:    utils.GetEnv("SENDGRID_API_KEY", "", log),
      FromEmail: utils.GetEnv("SENDGRID_FROM_EMAIL", "no-reply@ninthgrid.io", log),
      FromName:  utils.GetEnv("SENDGRID_FROM_NAME", "Ninthgrid", log),
    },
    Twilio: TwilioConfig{
      AccountSID: utils.GetEnv("TWILIO_ACCOUNT_SID", "", log),
      AuthToken:  utils.GetEnv("TWILIO_AUTH_TOKEN", "", log),
      FromNumber: utils.GetEnv("TWILIO_FROM_NUMBER", "", log),
    },
    AvatarsEnabled: utils.GetEnvAsBool("AVATARS_ENABLED", true, log),

    RateLimitPerSecond: float64(utils.GetEnvAsInt("RATE_LIMIT_PER_SECOND", 5, log)),
  }

  if err := cfg.Validate(); err != nil {
    log.Error("Configuration invalid", "error", err)
    return nil, err
  }
  log.Info("Configuration loaded :)", "database", cfg.Database, "cloud", cfg.Cloud, "apiPrefix", cfg.APIPrefix)
  return cfg, nil
}

func (c *Config) Validate() error {
  switch c.Database {
  case DatabasePostgres, DatabaseMySQL, DatabaseMongo, DatabaseMemory:
  default:
    return fmt.Errorf("unsupported DATABASE_CHOICE %q", c.Database)
  }
  switch c.Cloud {
  case CloudGCP, CloudAWS:
  default:
    return fmt.Errorf("unsupported CLOUD_UPLOAD_OPTION %q", c.Cloud)
  }
  if c.AccessSecret == "" {
    return fmt.Errorf("ACCESS_SECRET is required")
  }
  if c.UploadChunkSize <= 0 {
    return fmt.Errorf("UPLOAD_CHUNK_SIZE must be positive, got %d", c.UploadChunkSize)
  }
  if c.OtpMaxAttempts <= 0 {
    return fmt.Errorf("OTP_MAX_ATTEMPTS must be positive, got %d", c.OtpMaxAttempts)
  }
  if !strings.HasPrefix(c.APIPrefix, "/") {
    c.APIPrefix = "/" + c.APIPrefix
  }
  return nil
}
