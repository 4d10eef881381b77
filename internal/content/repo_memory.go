package content

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local runs without a
// database.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]map[string]Document
	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string]map[string]Document{}, clock: time.Now}
}

func (s *MemoryStore) List(ctx context.Context, collection string, order Order) (ListResult, error) {
	if !order.valid() {
		return ListResult{}, ErrInvalidOrder
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0, len(s.docs[collection]))
	for _, d := range s.docs[collection] {
		out = append(out, cloneDocument(d))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		if order.Field == keyUpdatedAt {
			a, b = out[i].UpdatedAt, out[j].UpdatedAt
		}
		if a.Equal(b) {
			return out[i].ID < out[j].ID
		}
		if order.Desc {
			return a.After(b)
		}
		return a.Before(b)
	})
	return ListResult{Total: len(out), Documents: out}, nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDocument(d), nil
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock().UTC()
	d := Document{ID: id, Collection: collection, Fields: cloneFields(fields), CreatedAt: now, UpdatedAt: now}
	if s.docs[collection] == nil {
		s.docs[collection] = map[string]Document{}
	}
	s.docs[collection][id] = d
	return cloneDocument(d), nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.docs[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	merged := cloneFields(d.Fields)
	for k, v := range fields {
		merged[k] = v
	}
	d.Fields = merged
	d.UpdatedAt = s.clock().UTC()
	s.docs[collection][id] = d
	return cloneDocument(d), nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.docs[collection], id)
	return nil
}

func cloneDocument(d Document) Document {
	d.Fields = cloneFields(d.Fields)
	return d
}

func cloneFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// MemoryCache is a Cache backed by a map.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func NewMemoryCache() *MemoryCache { return &MemoryCache{items: map[string][]byte{}} }

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = append([]byte(nil), value...)
	return nil
}

func (c *MemoryCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}
