package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists documents as JSON files under a base directory, one
// file per path segment tree ("news/abc" -> <dir>/news/abc.json).
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed document store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) filePath(path string) string {
	return filepath.Join(s.dir, filepath.FromSlash(path)+".json")
}

// Get reads the document at path.
func (s *FileStore) Get(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.filePath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// Set writes the document at path, creating parent directories as needed.
func (s *FileStore) Set(_ context.Context, path string, value []byte) error {
	fp := s.filePath(path)
	if err := os.MkdirAll(filepath.Dir(fp), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := os.WriteFile(fp, value, 0644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Remove deletes the document at path.
func (s *FileStore) Remove(_ context.Context, path string) error {
	if err := os.Remove(s.filePath(path)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("remove document: %w", err)
	}
	return nil
}

// List reads every document directly under prefix. A missing prefix
// directory yields an empty result, not an error.
func (s *FileStore) List(_ context.Context, prefix string) (map[string][]byte, error) {
	root := filepath.Join(s.dir, filepath.FromSlash(prefix))
	out := make(map[string][]byte)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		key := strings.TrimSuffix(filepath.ToSlash(rel), ".json")
		out[key] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}
