package storage

import (
	"context"
	"errors"
)

// ErrNotFound reports an absent key. Absence is a valid empty state for
// every record this service persists, never a failure by itself.
var ErrNotFound = errors.New("storage: key not found")

// Durable storage keys. The session and cart stores own disjoint namespaces
// and never write each other's keys.
const (
	KeySessionToken = "session:token"
	KeySessionUser  = "session:user"
	KeyCartItems    = "cart:items"
)

// Store is the durable key-value contract backing the session and cart
// stores. Values are opaque strings; callers handle their own encoding.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
