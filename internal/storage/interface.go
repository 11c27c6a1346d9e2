// Package storage archives run content in S3-compatible object storage.
package storage

import (
	"context"
	"io"
)

// ObjectStorage is the subset of an object store the archive needs.
type ObjectStorage interface {
	// Upload writes size bytes from reader under key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Ping checks that the bucket is reachable.
	Ping(ctx context.Context) error
}
