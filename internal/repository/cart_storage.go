package repository

import (
	"context"
)

// CartStorage is the read/write contract of the key holding a serialized cart.
// Get returns ErrNotFound when nothing is stored under key. An emptied cart is
// deleted rather than stored.
type CartStorage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
