package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FS is a Store backed by the local filesystem, used for development and
// tests. Objects live at <root>/<bucket>/<key>; content type is ignored.
type FS struct {
	root string
}

// NewFS creates a filesystem store rooted at dir.
func NewFS(dir string) *FS {
	return &FS{root: dir}
}

func (f *FS) path(bucket, key string) string {
	return filepath.Join(f.root, bucket, filepath.FromSlash(key))
}

// Get reads an object. A missing file maps to ErrNotFound.
func (f *FS) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	body, err := os.ReadFile(f.path(bucket, key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", bucket, key, err)
	}
	return body, nil
}

// Put writes an object, creating parent directories as needed.
func (f *FS) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	path := f.path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s/%s: %w", bucket, key, err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("writing %s/%s: %w", bucket, key, err)
	}
	return nil
}
