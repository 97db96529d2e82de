package services

import (
  "context"
  "strings"
  "time"

  "github.com/ninthgrid/ninthgrid-backend/internal/apperr"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/metrics"
  "github.com/ninthgrid/ninthgrid-backend/internal/progress"
  "github.com/ninthgrid/ninthgrid-backend/internal/repos"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

const remoteDeleteTimeout = time.Minute

// ObjectStore is the object storage gateway as seen by the upload flow.
type ObjectStore interface {
  Upload(ctx context.Context, file types.UploadedFile, folder, uploadID string) (string, error)
  DeleteMany(ctx context.Context, urls []string) error
  Cloud() types.StorageCloud
}

type UploadFileInput struct {
  File        types.UploadedFile
  FileName    string
  Description *string
  UploadID    string
  OwnerID     string
  Folder      string
}

type UploadService interface {
  UploadFile(ctx context.Context, in UploadFileInput) (*types.File, error)
  GetProgress(ctx context.Context, uploadID string) (*types.UploadProgress, error)
  ListFiles(ctx context.Context, ownerID string, q types.PageQuery) (*types.Page[types.File], error)
  DeleteFile(ctx context.Context, ownerID, fileID string) error
}

type uploadService struct {
  log       *logger.Logger
  fileRepo  repos.FileRepo
  objects   ObjectStore
  progress  progress.Store
  metrics   *metrics.Metrics
  goAsync   func(func())
}

func NewUploadService(log *logger.Logger, fileRepo repos.FileRepo, objects ObjectStore, store progress.Store, m *metrics.Metrics) UploadService {
  return &uploadService{
    log:      log.With("service", "UploadService"),
    fileRepo: fileRepo,
    objects:  objects,
    progress: store,
    metrics:  m,
    goAsync:  func(f func()) { go f() },
  }
}

// SplitMime turns "image/png; charset=x" into ("image", "png").
func SplitMime(contentType string) (string, string) {
  mediaType, _, _ := strings.Cut(contentType, ";")
  mediaType = strings.ToLower(strings.TrimSpace(mediaType))
  fileType, fileFormat, _ := strings.Cut(mediaType, "/")
  return fileType, fileFormat
}

func (us *uploadService) UploadFile(ctx context.Context, in UploadFileInput) (*types.File, error) {
  log := us.log.With("ownerID", in.OwnerID, "uploadID", in.UploadID)
  log.Info("Starting UploadFile now...", "name", in.File.OriginalName, "size", in.File.Size)

  // Streaming and persisting both outlive a disconnecting client.
  work := context.WithoutCancel(ctx)

  //1) Stream
  url, err := us.objects.Upload(work, in.File, in.Folder, in.UploadID)
  if err != nil {
    log.Warn("Object upload failed, cleaning local spool", "error", err)
    if rmErr := in.File.Remove(); rmErr != nil {
      log.Warn("Failed to remove local spool", "path", in.File.Path, "error", rmErr)
    }
    us.metrics.ObserveUpload("upload_failed", in.File.Size)
    return nil, err
  }

  //2) Persist metadata
  fileType, fileFormat := SplitMime(in.File.ContentType)
  name := strings.TrimSpace(in.FileName)
  if name == "" {
    name = in.File.OriginalName
  }
  record := &types.File{
    FileName:        name,
    FileDescription: in.Description,
    FileType:        fileType,
    FileFormat:      fileFormat,
    FileSize:        in.File.Size,
    UserID:          in.OwnerID,
    URL:             url,
    StorageCloud:    us.objects.Cloud(),
  }
  created, err := us.fileRepo.Create(work, record)
  if err != nil {
    //3) Compensate: the object is live but no row points at it
    log.Error("Persisting file metadata failed, removing orphaned object", "url", url, "error", err)
    if delErr := us.objects.DeleteMany(work, []string{url}); delErr != nil {
      log.Warn("Compensating delete failed", "url", url, "error", delErr)
    }
    us.metrics.ObserveUpload("persist_failed", in.File.Size)
    return nil, err
  }

  us.metrics.ObserveUpload("completed", in.File.Size)
  log.Info("UploadFile complete :)", "fileID", created.ID)
  return created, nil
}

func (us *uploadService) GetProgress(ctx context.Context, uploadID string) (*types.UploadProgress, error) {
  return us.progress.Get(ctx, uploadID)
}

func (us *uploadService) ListFiles(ctx context.Context, ownerID string, q types.PageQuery) (*types.Page[types.File], error) {
  return us.fileRepo.ListByOwner(ctx, ownerID, q)
}

// DeleteFile removes the row and schedules the remote delete without waiting on it.
// A file owned by someone else reads as missing.
func (us *uploadService) DeleteFile(ctx context.Context, ownerID, fileID string) error {
  us.log.Info("Starting DeleteFile now...", "fileID", fileID, "ownerID", ownerID)
  file, err := us.fileRepo.GetByID(ctx, fileID)
  if err != nil {
    return err
  }
  if file.UserID != ownerID {
    return apperr.NotFound("File Not Found")
  }

  url := file.URL
  us.goAsync(func() {
    ctx, cancel := context.WithTimeout(context.Background(), remoteDeleteTimeout)
    defer cancel()
    if err := us.objects.DeleteMany(ctx, []string{url}); err != nil {
      us.log.Warn("Remote object delete failed", "fileID", fileID, "url", url, "error", err)
    }
  })

  return us.fileRepo.Delete(ctx, fileID)
}
