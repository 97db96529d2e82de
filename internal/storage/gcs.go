package storage

import (
  "context"
  "fmt"

  gcs "cloud.google.com/go/storage"
  "google.golang.org/api/option"

  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

const gcsPublicHost = "https://storage.googleapis.com"

type GCSBucket struct {
  client    *gcs.Client
  name      string
  chunkSize int
  log       *logger.Logger
}

// NewGCSBucket opens a client with the service-account key file when one is given,
// otherwise with application default credentials.
func NewGCSBucket(ctx context.Context, bucketName, credentialsFile string, chunkSize int, baseLog *logger.Logger) (*GCSBucket, error) {
  log := baseLog.With("bucket", "GCSBucket", "name", bucketName)
  log.Info("Setting up GCS client now...")
  if bucketName == "" {
    return nil, fmt.Errorf("GOOGLE_BUCKET_NAME is required for GCP uploads")
  }
  var opts []option.ClientOption
  if credentialsFile != "" {
    opts = append(opts, option.WithCredentialsFile(credentialsFile))
  }
  client, err := gcs.NewClient(ctx, opts...)
  if err != nil {
    return nil, fmt.Errorf("creating GCS client: %w", err)
  }
  log.Info("GCS client ready :)")
  return &GCSBucket{client: client, name: bucketName, chunkSize: chunkSize, log: log}, nil
}

func (b *GCSBucket) Name() string { return b.name }

func (b *GCSBucket) Cloud() types.StorageCloud { return types.StorageGCP }

func (b *GCSBucket) PublicURL(key string) string {
  return fmt.Sprintf("%s/%s/%s", gcsPublicHost, b.name, key)
}

func (b *GCSBucket) NewWriter(ctx context.Context, key, contentType string, size int64) (ObjectWriter, error) {
  wctx, cancel := context.WithCancel(ctx)
  w := b.client.Bucket(b.name).Object(key).NewWriter(wctx)
  w.ContentType = contentType
  w.CacheControl = "public, max-age=31536000"
  if b.chunkSize > 0 {
    w.ChunkSize = b.chunkSize
  }
  return &gcsWriter{w: w, cancel: cancel}, nil
}

func (b *GCSBucket) Delete(ctx context.Context, bucket, key string) error {
  return b.client.Bucket(bucket).Object(key).Delete(ctx)
}

func (b *GCSBucket) Close() error {
  return b.client.Close()
}

type gcsWriter struct {
  w      *gcs.Writer
  cancel context.CancelFunc
}

func (g *gcsWriter) Write(p []byte) (int, error) {
  return g.w.Write(p)
}

func (g *gcsWriter) Close() error {
  defer g.cancel()
  return g.w.Close()
}

// Abort cancels the resumable session; nothing is committed.
func (g *gcsWriter) Abort(cause error) {
  g.cancel()
  _ = g.w.Close()
}
