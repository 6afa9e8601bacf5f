// Package storage holds the key/value persistence scopes used for the local
// wallet identity and installation id.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has never been written
var ErrNotFound = errors.New("storage: key not found")

// Store is a persistence scope holding small records under fixed keys
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Locker is implemented by stores shared between processes.
// The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func() error, err error)
}
