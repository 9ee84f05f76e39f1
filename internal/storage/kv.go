package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KV.Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// KV is a durable last-write-wins key/value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
