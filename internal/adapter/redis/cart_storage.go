package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/saiko-shop/storefront/internal/repository"
)

type cartStorage struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewCartStorage keeps each cart blob under its own key. A zero ttl keeps
// carts until they are deleted.
func NewCartStorage(client redis.Cmdable, ttl time.Duration) repository.CartStorage {
	return &cartStorage{
		client: client,
		ttl:    ttl,
	}
}

func (r *cartStorage) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart %s from redis: %w", key, err)
	}
	return val, nil
}

func (r *cartStorage) Set(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return errors.New("cannot save cart under an empty key")
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart %s to redis: %w", key, err)
	}
	return nil
}

func (r *cartStorage) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cart %s from redis: %w", key, err)
	}
	return nil
}
