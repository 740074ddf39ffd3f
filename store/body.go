package store

import (
	"context"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// FileBodyStore stores script bodies as plain files under a root directory,
// one body per file, no framing. The relative path of each body is derived
// from the record's category and name.
type FileBodyStore struct {
	root string
}

func NewFileBodyStore(root string) *FileBodyStore {
	return &FileBodyStore{root: root}
}

func (s *FileBodyStore) fullPath(path string) string {
	return filepath.Join(s.root, path)
}

// Read returns the file's full contents as the script body. The caller maps
// a missing file to its own not-found error.
func (s *FileBodyStore) Read(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(s.fullPath(path))
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Write stores the body, creating the category directory if needed.
// Overwrites are idempotent.
func (s *FileBodyStore) Write(ctx context.Context, path string, text string) error {
	full := s.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &IOError{Op: "create directory", Path: filepath.Dir(full), Err: err}
	}

	if err := os.WriteFile(full, []byte(text), 0o644); err != nil {
		return &IOError{Op: "write", Path: full, Err: err}
	}

	log.Debugf("Wrote %d bytes to %s", len(text), full)
	return nil
}

// Delete removes the body file. The error is passed through so the caller
// can tell a missing file from other failures.
func (s *FileBodyStore) Delete(ctx context.Context, path string) error {
	return os.Remove(s.fullPath(path))
}
