package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob: file not found")

// Object is what the store reports back after a write.
type Object struct {
	ID  string `json:"fileId"`
	URL string `json:"url"`
}

// Store is the blob-store collaborator. Delete of a missing object
// returns ErrNotFound.
type Store interface {
	Put(ctx context.Context, bucket, id, contentType string, data []byte) (Object, error)
	Delete(ctx context.Context, bucket, id string) error
}
