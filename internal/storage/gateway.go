package storage

import (
  "context"
  "errors"
  "fmt"
  "io"
  "math"
  "os"
  "path/filepath"
  "strings"

  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"

  "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/progress"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

const (
  DefaultChunkSize   = 256 * 1024
  folderSuffix       = "ninthgrid"
  maxParallelDeletes = 8
)

// Gateway streams local files into the bucket and reports progress per chunk.
type Gateway struct {
  bucket    Bucket
  progress  progress.Store
  log       *logger.Logger
  chunkSize int
  newID     func() string
}

func NewGateway(bucket Bucket, store progress.Store, chunkSize int, baseLog *logger.Logger) *Gateway {
  if chunkSize <= 0 {
    chunkSize = DefaultChunkSize
  }
  return &Gateway{
    bucket:    bucket,
    progress:  store,
    log:       baseLog.With("gateway", "ObjectStorageGateway", "bucket", bucket.Name()),
    chunkSize: chunkSize,
    newID:     uuid.NewString,
  }
}

func (g *Gateway) Cloud() types.StorageCloud {
  return g.bucket.Cloud()
}

// ObjectKey is <folder>ninthgrid/<id><ext>.
func ObjectKey(folder, id, originalName string) string {
  return fmt.Sprintf("%s%s/%s%s", folder, folderSuffix, id, strings.ToLower(filepath.Ext(originalName)))
}

// Percent is bytes-so-far over total, rounded, capped at 99 until completion.
func Percent(sent, total int64) int {
  if total <= 0 {
    return 0
  }
  p := int(math.Round(float64(sent) / float64(total) * 100))
  if p > 99 {
    p = 99
  }
  if p < 0 {
    p = 0
  }
  return p
}

// Upload streams file to the bucket and returns its public URL.
// On success the local spool is removed; on failure it is left for the caller.
func (g *Gateway) Upload(ctx context.Context, file types.UploadedFile, folder, uploadID string) (string, error) {
  key := ObjectKey(folder, g.newID(), file.OriginalName)
  log := g.log.With("key", key, "uploadID", uploadID)
  log.Info("Starting streamed upload now...")

  //1) Open the spooled file
  src, err := os.Open(file.Path)
  if err != nil {
    g.report(ctx, uploadID, types.UploadProgress{Status: types.UploadFailed, Progress: 0})
    return "", apperr.Internal("opening local upload", err)
  }
  defer src.Close()
  total := file.Size
  if total <= 0 {
    if info, statErr := src.Stat(); statErr == nil {
      total = info.Size()
    }
  }

  //2) Open the remote write stream
  w, err := g.bucket.NewWriter(ctx, key, file.ContentType, total)
  if err != nil {
    g.report(ctx, uploadID, types.UploadProgress{Status: types.UploadFailed, Progress: 0})
    return "", apperr.Upstream("opening remote object", err)
  }

  //3) Chunk loop; progress is reported before each chunk is handed to the writer
  if err := g.stream(ctx, src, w, total, uploadID); err != nil {
    w.Abort(err)
    log.Warn("Streamed upload failed", "error", err)
    g.report(ctx, uploadID, types.UploadProgress{Status: types.UploadFailed, Progress: 0})
    return "", apperr.Upstream("uploading to object storage", err)
  }
  if err := w.Close(); err != nil {
    log.Warn("Committing remote object failed", "error", err)
    g.report(ctx, uploadID, types.UploadProgress{Status: types.UploadFailed, Progress: 0})
    return "", apperr.Upstream("uploading to object storage", err)
  }

  //4) Completion
  g.report(ctx, uploadID, types.UploadProgress{Status: types.UploadCompleted, Progress: 100})
  if err := file.Remove(); err != nil {
    log.Warn("Failed to remove local upload after success", "path", file.Path, "error", err)
  }
  url := g.bucket.PublicURL(key)
  log.Info("Streamed upload complete :)", "url", url)
  return url, nil
}

func (g *Gateway) stream(ctx context.Context, src io.Reader, w io.Writer, total int64, uploadID string) error {
  buf := make([]byte, g.chunkSize)
  var sent int64
  for {
    n, rerr := io.ReadFull(src, buf)
    if n > 0 {
      pct := Percent(sent, total)
      status := types.UploadOngoing
      if pct == 0 {
        status = types.UploadStarted
      }
      g.report(ctx, uploadID, types.UploadProgress{Status: status, Progress: pct})
      if _, werr := w.Write(buf[:n]); werr != nil {
        return werr
      }
      sent += int64(n)
    }
    if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
      return nil
    }
    if rerr != nil {
      return rerr
    }
  }
}

// report writes a snapshot when an upload id was supplied; store failures are logged only.
func (g *Gateway) report(ctx context.Context, uploadID string, p types.UploadProgress) {
  if uploadID == "" || g.progress == nil {
    return
  }
  if err := g.progress.Set(ctx, uploadID, p); err != nil {
    g.log.Warn("Failed to record upload progress", "uploadID", uploadID, "status", p.Status, "error", err)
  }
}

// PutObject uploads a small in-memory object (no progress tracking).
func (g *Gateway) PutObject(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
  w, err := g.bucket.NewWriter(ctx, key, contentType, size)
  if err != nil {
    return "", apperr.Upstream("opening remote object", err)
  }
  if _, err := io.Copy(w, r); err != nil {
    w.Abort(err)
    return "", apperr.Upstream("writing remote object", err)
  }
  if err := w.Close(); err != nil {
    return "", apperr.Upstream("writing remote object", err)
  }
  return g.bucket.PublicURL(key), nil
}

// DeleteMany removes every object behind urls concurrently. Any unparsable URL fails the
// call before deletion starts; individual delete failures are logged and skipped.
func (g *Gateway) DeleteMany(ctx context.Context, urls []string) error {
  refs := make([]ObjectRef, 0, len(urls))
  for _, raw := range urls {
    ref, err := ParseObjectURL(raw)
    if err != nil {
      return apperr.Validation(err.Error())
    }
    refs = append(refs, ref)
  }

  var eg errgroup.Group
  eg.SetLimit(maxParallelDeletes)
  for _, ref := range refs {
    ref := ref
    eg.Go(func() error {
      if err := g.bucket.Delete(ctx, ref.Bucket, ref.Key); err != nil {
        g.log.Warn("Failed to delete remote object", "bucket", ref.Bucket, "key", ref.Key, "error", err)
        return nil
      }
      g.log.Info("Remote object deleted", "bucket", ref.Bucket, "key", ref.Key)
      return nil
    })
  }
  return eg.Wait()
}
