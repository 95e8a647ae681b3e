//go:build integration

package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/saiko-shop/storefront/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClient *redis.Client

// TestMain starts a throwaway Redis container for the storage tests.
func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start Redis resource: %s", err)
	}
	_ = resource.Expire(120)

	addr := resource.GetHostPort("6379/tcp")
	if err := pool.Retry(func() error {
		testClient = redis.NewClient(&redis.Options{Addr: addr})
		return testClient.Ping(context.Background()).Err()
	}); err != nil {
		log.Fatalf("Could not connect to Redis at %s: %s", addr, err)
	}

	code := m.Run()

	_ = testClient.Close()
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge Redis resource: %s", err)
	}
	os.Exit(code)
}

func TestCartStorage_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	storage := NewCartStorage(testClient, time.Minute)
	key := fmt.Sprintf("saiko_cart:%d", time.Now().UnixNano())

	_, err := storage.Get(ctx, key)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	payload := []byte(`[{"id":"kiri-tee-01","name":"Kiri Tee","price":45,"image":"","size":"M","quantity":1}]`)
	require.NoError(t, storage.Set(ctx, key, payload))

	got, err := storage.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	ttl, err := testClient.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, storage.Delete(ctx, key))
	_, err = storage.Get(ctx, key)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCartStorage_ZeroTTLKeepsKey(t *testing.T) {
	ctx := context.Background()
	storage := NewCartStorage(testClient, 0)
	key := fmt.Sprintf("saiko_cart:persistent:%d", time.Now().UnixNano())

	require.NoError(t, storage.Set(ctx, key, []byte("[]")))
	ttl, err := testClient.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
}
