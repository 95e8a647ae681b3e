// Package memory is a process-local cart storage used for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/saiko-shop/storefront/internal/repository"
)

type CartStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewCartStorage() *CartStorage {
	return &CartStorage{blobs: make(map[string][]byte)}
}

var _ repository.CartStorage = (*CartStorage)(nil)

func (s *CartStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *CartStorage) Set(_ context.Context, key string, data []byte) error {
	if key == "" {
		return errors.New("cannot save cart under an empty key")
	}
	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	s.blobs[key] = stored
	s.mu.Unlock()
	return nil
}

func (s *CartStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

// Put stores raw bytes without any checks. Tests use it to plant corrupt carts.
func (s *CartStorage) Put(key string, data []byte) {
	s.mu.Lock()
	s.blobs[key] = data
	s.mu.Unlock()
}
