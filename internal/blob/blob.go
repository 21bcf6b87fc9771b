// Package blob abstracts the object store holding the dataset and the
// published page, with S3 and local-filesystem implementations.
package blob

import (
	"context"
	"errors"
)

// Common errors.
var (
	// ErrNotFound is returned by Get when the object does not exist.
	ErrNotFound = errors.New("object not found")
)

// Store is an opaque bucket/key blob store.
type Store interface {
	// Get reads the full object body. Returns ErrNotFound if absent.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// Put writes the full object body, overwriting prior content.
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
}
