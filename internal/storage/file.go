package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/service"
)

// FileStore keeps documents as files in a directory.
type FileStore struct {
	root string
}

var _ service.BlobStore = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := validateString(dir, "dir"); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{root: dir}, nil
}

// Root returns the directory the store writes to.
func (s *FileStore) Root() string {
	return s.root
}

// Put writes data to root/name and returns the file path. The write goes
// through a temporary file so readers never see a partial document.
func (s *FileStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(s.root, name)
	tmp, err := os.CreateTemp(s.root, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store %s: %w", name, err)
	}
	return target, nil
}

// Get reads a file. Relative locators resolve against the store root.
func (s *FileStore) Get(ctx context.Context, locator string) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(locator, "locator"); err != nil {
		return nil, err
	}

	path := locator
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	data, err := os.ReadFile(path) // #nosec G304
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("document %s: %w", locator, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", locator, err)
	}
	return data, nil
}
