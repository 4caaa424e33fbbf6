package store

import (
	"context"
	"errors"
)

// ErrNotFound reports that no document exists at the requested path.
var ErrNotFound = errors.New("document not found")

// DocStore is the port to the path-addressed persistent document store.
// Paths are slash-separated ("news/{id}"); values are opaque JSON.
type DocStore interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Set(ctx context.Context, path string, value []byte) error
	Remove(ctx context.Context, path string) error
	// List returns all documents whose path sits directly under prefix,
	// keyed by full path.
	List(ctx context.Context, prefix string) (map[string][]byte, error)
}
