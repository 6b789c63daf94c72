package object

import (
	"context"
	"io"
)

// Store holds batch outputs addressed by slash-separated relative keys.
type Store interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns keys ending in suffix, sorted.
	List(ctx context.Context, suffix string) ([]string, error)
}
