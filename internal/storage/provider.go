// Package storage defines the blob store abstraction used to persist output
// records. Implementations live in the local, memory, and gcs subpackages.
package storage

import (
	"context"
	"io"
)

// BlobStore writes one object and returns a URI pointing at it. Writing an
// existing path replaces the previous object.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}
