package ports

import (
	"context"
	"io"
)

// FileStorage defines the interface for uploaded file persistence.
// The stored file is the authoritative copy of a dataset; parsed frames are
// disposable derivations of it.
type FileStorage interface {
	Store(ctx context.Context, r io.Reader, filename string) (string, error)
	GetReader(ctx context.Context, filePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, filePath string) error
	Size(filePath string) (int64, error)
}
