package config

import (
  "testing"
  "time"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
)

func TestLoadDefaults(t *testing.T) {
  t.Setenv("ACCESS_SECRET", "s3cr3t")
  t.Setenv("DATABASE_CHOICE", "memory")

  cfg, err := Load(logger.Nop())
  require.NoError(t, err)

  assert.Equal(t, DatabaseMemory, cfg.Database)
  assert.Equal(t, CloudGCP, cfg.Cloud)
  assert.Equal(t, "/api/v1", cfg.APIPrefix)
  assert.Equal(t, "./file-uploads", cfg.UploadDir)
  assert.Equal(t, int64(200*1024*1024), cfg.UploadMaxBytes)
  assert.Equal(t, 300*time.Second, cfg.ProgressTTL)
  assert.Equal(t, 365*24*time.Hour, cfg.AccessTokenTTL)
  assert.Equal(t, 20, cfg.OtpMaxAttempts)
  assert.Equal(t, "upload_progress", cfg.Redis.Channel)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
  t.Setenv("ACCESS_SECRET", "s3cr3t")
  t.Setenv("DATABASE_CHOICE", "sqlite")

  _, err := Load(logger.Nop())
  require.Error(t, err)
  assert.Contains(t, err.Error(), "DATABASE_CHOICE")
}

func TestLoadRequiresSecret(t *testing.T) {
  t.Setenv("ACCESS_SECRET", "")
  t.Setenv("DATABASE_CHOICE", "MEMORY")

  _, err := Load(logger.Nop())
  require.Error(t, err)
}

func TestValidateNormalisesPrefix(t *testing.T) {
  cfg := &Config{
    Database:        DatabaseMySQL,
    Cloud:           CloudAWS,
    AccessSecret:    "x",
    UploadChunkSize: 1,
    OtpMaxAttempts:  1,
    APIPrefix:       "api",
  }
  require.NoError(t, cfg.Validate())
  assert.Equal(t, "/api", cfg.APIPrefix)
}
