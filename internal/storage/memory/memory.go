package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jdufresne12/web-portal/internal/storage"
)

// object is one stored blob.
type object struct {
	ContentType string
	Data        []byte
}

// Storage implements storage.Storage in process memory. It is used for local
// development and tests.
type Storage struct {
	mu      sync.RWMutex
	objects map[string]*object
	baseURL string
}

// New creates a new in-memory storage instance.
func New(baseURL string) *Storage {
	return &Storage{
		objects: make(map[string]*object),
		baseURL: baseURL,
	}
}

// Upload stores the object bytes and returns the generated URL.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", input.Key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[input.Key] = &object{ContentType: input.ContentType, Data: data}

	return &storage.UploadResult{
		Key: input.Key,
		URL: storage.PublicURL(s.baseURL, input.Key),
	}, nil
}

// Delete removes an object.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[key]; !exists {
		return fmt.Errorf("object not found: %s", key)
	}
	delete(s.objects, key)
	return nil
}

// GetURL returns the URL for the given key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.objects[key]; !exists {
		return "", fmt.Errorf("object not found: %s", key)
	}
	return storage.PublicURL(s.baseURL, key), nil
}

// Ping always succeeds.
func (s *Storage) Ping(_ context.Context) error { return nil }

// Has reports whether key is stored.
func (s *Storage) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
