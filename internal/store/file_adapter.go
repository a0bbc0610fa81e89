package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileAdapter persists each collection as a JSON file under a data
// directory. Writes go through a temp file + rename so a crash mid-save
// never leaves a truncated snapshot.
type FileAdapter struct {
	dir string
}

func NewFileAdapter(dir string) (*FileAdapter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileAdapter{dir: dir}, nil
}

func (f *FileAdapter) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileAdapter) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return data, nil
}

func (f *FileAdapter) Save(key string, value []byte) error {
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := os.Rename(tmp, f.path(key)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
