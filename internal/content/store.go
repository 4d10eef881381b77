package content

import "context"

// Store is the document-store collaborator. Implementations return
// ErrNotFound for missing documents; every other error is a store failure.
type Store interface {
	List(ctx context.Context, collection string, order Order) (ListResult, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Create(ctx context.Context, collection, id string, fields Fields) (Document, error)
	// Update merges fields into the existing document.
	Update(ctx context.Context, collection, id string, fields Fields) (Document, error)
	Delete(ctx context.Context, collection, id string) error
}

// Cache holds rendered public listings. Misses return ok=false.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}
