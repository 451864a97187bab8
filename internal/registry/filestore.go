package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// FileStore persists the registry as a single JSON document keyed by server
// name. A missing file reads as an empty registry and is recreated on the
// next save; a corrupt document is logged and treated as empty.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the full registry document.
func (s *FileStore) Load(ctx context.Context) (map[string]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Record{}, nil
		}
		return nil, fmt.Errorf("read registry %s: %w", s.path, err)
	}

	servers := map[string]Record{}
	if err := json.Unmarshal(data, &servers); err != nil {
		log.Printf("[Registry] corrupt registry document %s (%v), treating as empty", s.path, err)
		return map[string]Record{}, nil
	}
	return servers, nil
}

// Save replaces the full registry document.
func (s *FileStore) Save(ctx context.Context, servers map[string]Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create registry directory %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(servers, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write registry %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
