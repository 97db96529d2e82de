package storage

import (
  "context"
  "fmt"
  "io"
  "strings"

  "github.com/aws/aws-sdk-go-v2/aws"
  awsconfig "github.com/aws/aws-sdk-go-v2/config"
  "github.com/aws/aws-sdk-go-v2/credentials"
  "github.com/aws/aws-sdk-go-v2/service/s3"

  "github.com/ninthgrid/ninthgrid-backend/internal/config"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

// s3API is the subset of *s3.Client the bucket uses.
type s3API interface {
  PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
  DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Bucket struct {
  api        s3API
  name       string
  publicBase string
  log        *logger.Logger
}

func NewS3Bucket(ctx context.Context, cfg config.S3Config, baseLog *logger.Logger) (*S3Bucket, error) {
  log := baseLog.With("bucket", "S3Bucket", "name", cfg.Bucket)
  log.Info("Setting up S3 client now...")
  if cfg.Bucket == "" {
    return nil, fmt.Errorf("S3_BUCKET is required for AWS uploads")
  }

  loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
  if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
    loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
      credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
    ))
  }
  awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
  if err != nil {
    return nil, fmt.Errorf("loading AWS config: %w", err)
  }
  client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
    if cfg.Endpoint != "" {
      o.BaseEndpoint = aws.String(cfg.Endpoint)
    }
    o.UsePathStyle = cfg.UsePathStyle
  })

  base := strings.TrimRight(cfg.Endpoint, "/")
  if base == "" {
    base = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
  }
  log.Info("S3 client ready :)")
  return &S3Bucket{api: client, name: cfg.Bucket, publicBase: base, log: log}, nil
}

func (b *S3Bucket) Name() string { return b.name }

func (b *S3Bucket) Cloud() types.StorageCloud { return types.StorageAWS }

// PublicURL is path-style so ParseObjectURL recovers the bucket.
func (b *S3Bucket) PublicURL(key string) string {
  return fmt.Sprintf("%s/%s/%s", b.publicBase, b.name, key)
}

func (b *S3Bucket) NewWriter(ctx context.Context, key, contentType string, size int64) (ObjectWriter, error) {
  pr, pw := io.Pipe()
  done := make(chan error, 1)
  go func() {
    _, err := b.api.PutObject(ctx, &s3.PutObjectInput{
      Bucket:        aws.String(b.name),
      Key:           aws.String(key),
      Body:          pr,
      ContentLength: aws.Int64(size),
      ContentType:   aws.String(contentType),
      CacheControl:  aws.String("public, max-age=31536000"),
    })
    _ = pr.CloseWithError(err)
    done <- err
  }()
  return &s3Writer{pw: pw, done: done}, nil
}

func (b *S3Bucket) Delete(ctx context.Context, bucket, key string) error {
  _, err := b.api.DeleteObject(ctx, &s3.DeleteObjectInput{
    Bucket: aws.String(bucket),
    Key:    aws.String(key),
  })
  return err
}

type s3Writer struct {
  pw   *io.PipeWriter
  done chan error
}

func (w *s3Writer) Write(p []byte) (int, error) {
  return w.pw.Write(p)
}

func (w *s3Writer) Close() error {
  if err := w.pw.Close(); err != nil {
    return err
  }
  return <-w.done
}

func (w *s3Writer) Abort(cause error) {
  _ = w.pw.CloseWithError(cause)
  <-w.done
}
