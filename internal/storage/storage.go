package storage

import (
	"context"
	"io"

	"github.com/charliek/objstore/internal/domain"
)

// Backend is a storage client bound to exactly one bucket.
//
// Implementations report a missing object as domain.ErrNotFound and every
// other failure as domain.ErrBackend. Delete succeeds when the object is
// already gone. List returns every matching object, draining all pages.
type Backend interface {
	// Put stores the contents of r at path, replacing any existing object.
	// size is the content length, or -1 if unknown.
	Put(ctx context.Context, path string, r io.Reader, size int64) (domain.ObjectMetadata, error)

	// Get opens the object at path for reading
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path, ignoring a missing object
	Delete(ctx context.Context, path string) error

	// Exists checks if an object exists at path
	Exists(ctx context.Context, path string) (bool, error)

	// List returns all objects whose key starts with prefix
	List(ctx context.Context, prefix string) ([]domain.ObjectMetadata, error)

	// Close releases any resources held by the client
	Close() error
}

// Describer is implemented by backends that can name the bucket they are bound to
type Describer interface {
	Describe() string
}
