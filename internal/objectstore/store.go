package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"intervue/internal/services"
)

// Store persists JSON documents and binary blobs by key. Writes are whole
// objects: there is no partial update, and writing an existing key replaces
// it. The returned reference is the key the object was stored under.
type Store interface {
	PutDocument(ctx context.Context, key string, value any) (string, error)
	GetDocument(ctx context.Context, ref string, out any) error
	PutBlob(ctx context.Context, key string, data []byte) (string, error)
	GetBlob(ctx context.Context, ref string) ([]byte, error)
}

// NewFilesystem returns a Store rooted at dir. Keys are slash-separated
// relative paths; parent directories are created on demand.
func NewFilesystem(dir string) (Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "objectstore", "new", "data directory required", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create object store root: %w", err)
	}
	return &fsStore{root: dir}, nil
}

type fsStore struct {
	root string
}

func (s *fsStore) PutDocument(ctx context.Context, key string, value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "objectstore", "put document", "encode json", err)
	}
	return s.PutBlob(ctx, key, data)
}

func (s *fsStore) GetDocument(ctx context.Context, ref string, out any) error {
	data, err := s.GetBlob(ctx, ref)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return services.Wrap(services.ErrFatalResponse, "objectstore", "get document", fmt.Sprintf("decode %q", ref), err)
	}
	return nil
}

func (s *fsStore) PutBlob(ctx context.Context, key string, data []byte) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", services.Wrap(services.ErrTransient, "objectstore", "put blob", "create parent directory", err)
	}
	// Write-then-rename so readers never observe a torn object.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "objectstore", "put blob", fmt.Sprintf("write %q", key), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", services.Wrap(services.ErrTransient, "objectstore", "put blob", fmt.Sprintf("publish %q", key), err)
	}
	return key, nil
}

func (s *fsStore) GetBlob(ctx context.Context, ref string) ([]byte, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "objectstore", "get blob", fmt.Sprintf("object %q", ref), nil)
		}
		return nil, services.Wrap(services.ErrTransient, "objectstore", "get blob", fmt.Sprintf("read %q", ref), err)
	}
	return data, nil
}

func (s *fsStore) resolve(key string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", services.Wrap(services.ErrValidation, "objectstore", "resolve", "object key required", nil)
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", services.Wrap(services.ErrValidation, "objectstore", "resolve", fmt.Sprintf("object key %q escapes store root", key), nil)
	}
	return filepath.Join(s.root, cleaned), nil
}
