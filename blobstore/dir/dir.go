// Package dir provides a filesystem backed blob store, used for tests and the
// standalone daemon mode.
package dir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/manualsvc/bundler/blobstore"
)

func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("root directory is empty")
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create root directory %s: %v", root, err)
	}

	return &Store{root: root}, nil
}

type Store struct {
	root string
}

var _ blobstore.Store = (*Store)(nil)

func (s *Store) Put(_ context.Context, path string, b []byte) error {
	fileName, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for blob %s: %v", path, err)
	}
	if err := os.WriteFile(fileName, b, 0o644); err != nil {
		return fmt.Errorf("failed to write blob %s: %v", path, err)
	}
	return nil
}

func (s *Store) Get(_ context.Context, path string) ([]byte, error) {
	fileName, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(fileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read blob %s: %v", path, err)
	}
	return b, nil
}

func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(s.root, func(fileName string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		rel, err := filepath.Rel(s.root, fileName)
		if err != nil {
			return err
		}

		path := filepath.ToSlash(rel)
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs below %s: %v", prefix, err)
	}

	return paths, nil
}

func (s *Store) Delete(_ context.Context, path string) error {
	fileName, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %v", path, err)
	}
	return nil
}

// SignedUrl returns a file URL - the filesystem store has no access control
// to scope a link to.
func (s *Store) SignedUrl(_ context.Context, path string, _ time.Duration) (string, error) {
	fileName, err := s.resolve(path)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(fileName)
	if err != nil {
		return "", fmt.Errorf("failed to resolve blob %s: %v", path, err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

func (s *Store) resolve(path string) (string, error) {
	if path == "" || strings.Contains(path, "..") {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return filepath.Join(s.root, filepath.FromSlash(path)), nil
}
