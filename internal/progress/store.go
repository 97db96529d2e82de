package progress

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "time"

  cache "github.com/go-pkgz/expirable-cache"
  "github.com/redis/go-redis/v9"

  "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

const (
  DefaultTTL     = 300 * time.Second
  DefaultChannel = "upload_progress"
  msgNotFound    = "No Upload progress data found"

  MemoryStoreMaxKeys = 10000
)

// Key is the cache key holding the snapshot for an upload; also the websocket channel name.
func Key(uploadID string) string {
  return "upload:" + uploadID
}

type Store interface {
  Set(ctx context.Context, uploadID string, p types.UploadProgress) error
  Get(ctx context.Context, uploadID string) (*types.UploadProgress, error)
}

// Event is published on the live channel after every write.
type Event struct {
  Channel string               `json:"channel"`
  Payload types.UploadProgress `json:"payload"`
}

type RedisStore struct {
  client  redis.UniversalClient
  ttl     time.Duration
  channel string
  log     *logger.Logger
}

// NewRedisStore writes snapshots with ttl; channel may be empty to disable live publishing.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration, channel string, baseLog *logger.Logger) *RedisStore {
  if ttl <= 0 {
    ttl = DefaultTTL
  }
  return &RedisStore{
    client:  client,
    ttl:     ttl,
    channel: channel,
    log:     baseLog.With("store", "ProgressStore"),
  }
}

func (s *RedisStore) Set(ctx context.Context, uploadID string, p types.UploadProgress) error {
  key := Key(uploadID)
  payload, err := json.Marshal(p)
  if err != nil {
    return fmt.Errorf("marshal progress: %w", err)
  }
  pipe := s.client.Pipeline()
  pipe.Set(ctx, key, payload, s.ttl)
  if s.channel != "" {
    evt, err := json.Marshal(Event{Channel: key, Payload: p})
    if err != nil {
      return fmt.Errorf("marshal progress event: %w", err)
    }
    pipe.Publish(ctx, s.channel, evt)
  }
  if _, err := pipe.Exec(ctx); err != nil {
    s.log.Warn("Failed to write upload progress", "key", key, "error", err)
    return apperr.Upstream("writing upload progress", err)
  }
  s.log.Debug("Upload progress written", "key", key, "status", p.Status, "progress", p.Progress)
  return nil
}

func (s *RedisStore) Get(ctx context.Context, uploadID string) (*types.UploadProgress, error) {
  raw, err := s.client.Get(ctx, Key(uploadID)).Bytes()
  if errors.Is(err, redis.Nil) {
    return nil, apperr.NotFound(msgNotFound)
  }
  if err != nil {
    return nil, apperr.Upstream("reading upload progress", err)
  }
  var p types.UploadProgress
  if err := json.Unmarshal(raw, &p); err != nil {
    return nil, apperr.Internal("decoding upload progress", err)
  }
  return &p, nil
}

// MemoryStore is a process-local Store with the same expiry semantics.
type MemoryStore struct {
  ttl     time.Duration
  entries cache.Cache
}

// NewMemoryStore keeps at most MemoryStoreMaxKeys snapshots; the oldest is evicted first.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
  if ttl <= 0 {
    ttl = DefaultTTL
  }
  // TTL and MaxKeys options cannot fail.
  entries, _ := cache.NewCache(cache.TTL(ttl), cache.MaxKeys(MemoryStoreMaxKeys))
  return &MemoryStore{ttl: ttl, entries: entries}
}

func (m *MemoryStore) Set(ctx context.Context, uploadID string, p types.UploadProgress) error {
  m.entries.Set(Key(uploadID), p, m.ttl)
  return nil
}

func (m *MemoryStore) Get(ctx context.Context, uploadID string) (*types.UploadProgress, error) {
  key := Key(uploadID)
  v, ok := m.entries.Get(key)
  if !ok {
    m.entries.DeleteExpired()
    return nil, apperr.NotFound(msgNotFound)
  }
  p := v.(types.UploadProgress)
  return &p, nil
}
