package kvstore

import (
	"context"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// FileStore persists each key as a file under a base directory.
// Slashes in keys become directories, which keeps the on-disk layout
// inspectable during development.
type FileStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	base string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store rooted at base. Pass
// afero.NewMemMapFs() in tests.
func NewFileStore(fs afero.Fs, base string) (*FileStore, error) {
	if err := fs.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{fs: fs, base: base}, nil
}

func (s *FileStore) pathFor(key string) string {
	return path.Join(s.base, key)
}

// Get reads a key's value.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return data, nil
}

// Set writes a key's value durably.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pathFor(key)
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, p, value, 0o600)
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(s.pathFor(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Keys lists every stored key with the given prefix.
func (s *FileStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	err := afero.Walk(s.fs, s.base, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, s.base), "/")
		rel = strings.ReplaceAll(rel, string(os.PathSeparator), "/")
		if strings.HasPrefix(rel, prefix) {
			keys = append(keys, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
