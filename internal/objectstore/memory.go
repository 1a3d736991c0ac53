package objectstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"intervue/internal/services"
)

// NewMemory returns an in-memory Store used by tests and mock mode.
func NewMemory() Store {
	return &memoryStore{objects: make(map[string][]byte)}
}

type memoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func (s *memoryStore) PutDocument(ctx context.Context, key string, value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "objectstore", "put document", "encode json", err)
	}
	return s.PutBlob(ctx, key, data)
}

func (s *memoryStore) GetDocument(ctx context.Context, ref string, out any) error {
	data, err := s.GetBlob(ctx, ref)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return services.Wrap(services.ErrFatalResponse, "objectstore", "get document", fmt.Sprintf("decode %q", ref), err)
	}
	return nil
}

func (s *memoryStore) PutBlob(ctx context.Context, key string, data []byte) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", services.Wrap(services.ErrValidation, "objectstore", "put blob", "object key required", nil)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.mu.Lock()
	s.objects[key] = cp
	s.mu.Unlock()
	return key, nil
}

func (s *memoryStore) GetBlob(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.Trim(strings.TrimSpace(ref), "/")
	s.mu.RLock()
	data, ok := s.objects[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "objectstore", "get blob", fmt.Sprintf("object %q", ref), nil)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}
