package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"datachat/domain/core"
	"datachat/ports"
)

// Linux caps filenames at 255 bytes; cap the user-supplied part so the id
// prefix always fits.
const maxStoredNameBytes = 200

// LocalFileStorage stores uploaded dataset files on the local filesystem.
// Filenames are prefixed with a fresh id so user-supplied names can never
// collide or escape the base directory.
type LocalFileStorage struct {
	baseDir string
}

// NewLocalFileStorage creates a storage rooted at baseDir, creating it if needed
func NewLocalFileStorage(baseDir string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalFileStorage{baseDir: baseDir}, nil
}

var _ ports.FileStorage = (*LocalFileStorage)(nil)

func (s *LocalFileStorage) Store(ctx context.Context, r io.Reader, filename string) (string, error) {
	safeName := filepath.Base(strings.TrimSpace(filename))
	if safeName == "" || safeName == "." || safeName == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	path := filepath.Join(s.baseDir, core.NewID().String()+"_"+truncateName(safeName))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return path, nil
}

// truncateName shortens an over-long basename at a rune boundary, keeping
// the extension so parser dispatch still works.
func truncateName(name string) string {
	if len(name) <= maxStoredNameBytes {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) >= maxStoredNameBytes {
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)
	cut := maxStoredNameBytes - len(ext)
	for cut > 0 && cut < len(stem) && !utf8.RuneStart(stem[cut]) {
		cut--
	}
	return stem[:cut] + ext
}

func (s *LocalFileStorage) GetReader(ctx context.Context, filePath string) (io.ReadCloser, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return f, nil
}

func (s *LocalFileStorage) Delete(ctx context.Context, filePath string) error {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete stored file: %w", err)
	}
	return nil
}

func (s *LocalFileStorage) Size(filePath string) (int64, error) {
	fi, err := os.Stat(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to stat stored file: %w", err)
	}
	return fi.Size(), nil
}
