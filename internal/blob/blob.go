// Package blob stores rendered artwork bytes under immutable keys.
package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

type Object struct {
	Data        []byte
	ContentType string
}

// Store is a key/value blob store. Keys are written once; a Put on an
// existing key overwrites it with identical content.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
}
