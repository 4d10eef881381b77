package blob

import (
	"context"
	"sync"
)

type storedFile struct {
	ContentType string
	Data        []byte
}

// MemoryStore keeps files in a map. For tests.
type MemoryStore struct {
	mu      sync.Mutex
	baseURL string
	files   map[string]storedFile
	puts    int
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: baseURL, files: map[string]storedFile{}}
}

func (s *MemoryStore) Put(ctx context.Context, bucket, id, contentType string, data []byte) (Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[bucket+"/"+id] = storedFile{ContentType: contentType, Data: append([]byte(nil), data...)}
	s.puts++
	return Object{ID: id, URL: objectURL(s.baseURL, bucket, id)}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, bucket, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[bucket+"/"+id]; !ok {
		return ErrNotFound
	}
	delete(s.files, bucket+"/"+id)
	return nil
}

// Puts counts successful writes.
func (s *MemoryStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
