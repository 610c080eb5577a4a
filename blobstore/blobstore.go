// Package blobstore defines path-addressed blob storage, used for form
// templates and bundle exports. There are no directory semantics beyond path
// prefixes.
package blobstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates that no blob exists at a given path.
var ErrNotFound = errors.New("blob not found")

type Store interface {
	Put(ctx context.Context, path string, b []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	// List returns the paths of all blobs below a prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, path string) error
	// SignedUrl returns a time-limited link for retrieving the blob at path.
	SignedUrl(ctx context.Context, path string, expiry time.Duration) (string, error)
}
