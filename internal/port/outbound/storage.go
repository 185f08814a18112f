package outbound

import (
	"context"
	"io"
	"time"
)

// ArtifactStoragePort stores rendered videos and timeline manifests.
type ArtifactStoragePort interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// GetPresignedURL returns a time-limited download URL for key.
	GetPresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
