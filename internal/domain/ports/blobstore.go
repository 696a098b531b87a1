package ports

import (
	"context"
	"io"
)

// BlobStore holds media content uploaded by users.
type BlobStore interface {
	// Put stores the body under key and returns a URL that addresses it.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)

	// Open returns the content stored under key. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the content stored under key.
	Delete(ctx context.Context, key string) error
}
