package storage

import (
  "context"
  "fmt"
  "io"
  "net/url"
  "strings"

  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

// ObjectWriter streams one object. Close commits it; Abort discards it.
type ObjectWriter interface {
  io.Writer
  Close() error
  Abort(cause error)
}

// Bucket is the per-provider object store client.
type Bucket interface {
  Name() string
  Cloud() types.StorageCloud
  PublicURL(key string) string
  NewWriter(ctx context.Context, key, contentType string, size int64) (ObjectWriter, error)
  Delete(ctx context.Context, bucket, key string) error
}

// ObjectRef is a bucket/object pair decoded from a public URL.
type ObjectRef struct {
  Bucket string
  Key    string
}

// ParseObjectURL splits a public URL's path into its bucket and object key.
func ParseObjectURL(raw string) (ObjectRef, error) {
  u, err := url.Parse(raw)
  if err != nil {
    return ObjectRef{}, fmt.Errorf("invalid URL %q: %w", raw, err)
  }
  parts := make([]string, 0)
  for _, p := range strings.Split(u.Path, "/") {
    if p != "" {
      parts = append(parts, p)
    }
  }
  if len(parts) < 2 {
    return ObjectRef{}, fmt.Errorf("invalid URL %q: bucket name or file path is missing", raw)
  }
  return ObjectRef{Bucket: parts[0], Key: strings.Join(parts[1:], "/")}, nil
}
