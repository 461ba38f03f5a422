package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"storefront/domain"
)

// FileStore is a JSON file-backed implementation of domain.KeyValueStore.
// The whole key space is kept in one file; every write rewrites the file
// atomically (tmp + rename).
type FileStore struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
	path string
}

// compile-time assertion
var _ domain.KeyValueStore = (*FileStore)(nil)

// NewFileStore constructs a FileStore at the given path. If the file exists
// it will be loaded; a corrupt file is discarded and the store starts empty,
// it never fails construction.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		data: make(map[string]json.RawMessage),
		path: path,
	}
	s.loadFromFile()
	return s, nil
}

func (s *FileStore) loadFromFile() {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		// no file yet; that's fine
		if !os.IsNotExist(err) {
			slog.Warn("storage file unreadable, starting empty", "path", s.path, "error", err)
		}
		return
	}
	if len(b) == 0 {
		return
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(b, &data); err != nil {
		slog.Warn("storage file corrupt, starting empty", "path", s.path, "error", err)
		return
	}
	s.data = data
}

func (s *FileStore) saveToFile() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *FileStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return s.saveToFile()
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.saveToFile()
}
