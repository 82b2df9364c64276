package storage

import (
	"context"
	"io"
)

// ObjectInfo carries storage-layer metadata for a stored object.
type ObjectInfo struct {
	ContentType string
	Size        int64
	ETag        string
}

// ObjectStorage defines the interface for object storage operations
type ObjectStorage interface {
	// Upload uploads an object to storage with an immutable long-lived
	// cache directive
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download downloads an object and its metadata from storage
	Download(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)

	// GetURL returns the public URL for accessing an object
	GetURL(key string) string

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)

	// EnsureBucket creates the bucket if it doesn't exist
	EnsureBucket(ctx context.Context) error
}
