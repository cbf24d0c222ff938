package storage

import (
	"context"
	"sync"

	appmembership "github.com/onixgym/backend/internal/application/membership"
)

var _ appmembership.CardStore = (*MemoryCardStore)(nil)

// MemoryCardStore keeps card images in process memory. Used in tests and
// when no blob store is configured.
type MemoryCardStore struct {
	// BaseURL prefixes the key to form card URLs.
	// Defaults to "memory://cards" if not set
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
	puts    int
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryCardStore creates an empty MemoryCardStore
func NewMemoryCardStore() *MemoryCardStore {
	return &MemoryCardStore{
		BaseURL: "memory://cards",
		objects: make(map[string]memoryObject),
	}
}

// Put copies data under key
func (s *MemoryCardStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	s.puts++
	s.mu.Unlock()

	return s.URL(ctx, key)
}

// Get returns a copy of the object under key
func (s *MemoryCardStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, appmembership.ErrCardImageNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

// URL returns BaseURL/key
func (s *MemoryCardStore) URL(_ context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return joinURL(s.BaseURL, key), nil
}

// Exists reports whether key holds an object
func (s *MemoryCardStore) Exists(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// Delete removes key; deleting a missing key is not an error
func (s *MemoryCardStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// ContentType returns the content type the object was stored with
func (s *MemoryCardStore) ContentType(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[key].contentType
}

// Puts counts successful uploads
func (s *MemoryCardStore) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}
