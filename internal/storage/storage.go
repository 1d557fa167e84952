package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key is absent. Callers that
// treat absence as "empty" (the users list, the session record) check for
// it explicitly.
var ErrKeyNotFound = errors.New("storage: key not found")

// Storage is the persistence backend for the whole application state.
// Values are opaque JSON blobs; the stores above this layer own encoding.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Well-known keys.
const (
	KeyUsers = "users"
	KeyAuth  = "auth"
	KeyPrefs = "prefs"
)
