package storage

import (
	"context"
	"io"
	"time"
)

// UploadOptions conveys upload destination metadata.
type UploadOptions struct {
	Bucket      string
	Key         string
	ContentType string
}

// Service stores recommendation attachments in remote object storage.
type Service interface {
	Upload(ctx context.Context, body io.Reader, opts UploadOptions) (string, error)
	Delete(ctx context.Context, bucket, key string) error
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}
