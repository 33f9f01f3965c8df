package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/verdantfoods/storefront/internal/domain"
)

// LocalStorage implements CartStorage using a JSON file on the local
// filesystem. This is the Go analog of the browser's localStorage: one
// serialized blob under a fixed store name, per machine profile.
type LocalStorage struct {
	basePath  string // Directory holding the snapshot file (e.g., "~/.storefront")
	storeName string // File name without extension (e.g., "shopping-cart")
}

// NewLocalStorage creates a local filesystem storage implementation.
// basePath is created if it does not exist.
func NewLocalStorage(basePath, storeName string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath:  basePath,
		storeName: storeName,
	}, nil
}

func (s *LocalStorage) path() string {
	return filepath.Join(s.basePath, s.storeName+".json")
}

// Load reads the snapshot file.
func (s *LocalStorage) Load(ctx context.Context) (*domain.CartSnapshot, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, errRead(err)
	}

	var snap domain.CartSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errRead(err)
	}

	return &snap, nil
}

// Save writes the snapshot atomically: a temp file in the same directory is
// renamed over the previous snapshot so a crash mid-write cannot corrupt it.
func (s *LocalStorage) Save(ctx context.Context, snap *domain.CartSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errWrite(err)
	}

	tmp, err := os.CreateTemp(s.basePath, s.storeName+"-*.tmp")
	if err != nil {
		return errWrite(err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errWrite(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errWrite(err)
	}

	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		os.Remove(tmp.Name())
		return errWrite(err)
	}

	return nil
}
