package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/saiko-shop/storefront/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) repository.CartStorage {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "carts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCartStorage(db)
}

func TestCartStorage_GetMissing(t *testing.T) {
	storage := openTestDB(t)

	_, err := storage.Get(context.Background(), "saiko_cart:nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCartStorage_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	storage := openTestDB(t)
	key := "saiko_cart:visitor-1"

	require.NoError(t, storage.Set(ctx, key, []byte(`[]`)))
	require.NoError(t, storage.Set(ctx, key, []byte(`[{"id":"kiri-tee-01","size":"M","price":45,"quantity":2}]`)))

	got, err := storage.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"kiri-tee-01","size":"M","price":45,"quantity":2}]`, string(got))
}

func TestCartStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := openTestDB(t)
	key := "saiko_cart:visitor-2"

	require.NoError(t, storage.Set(ctx, key, []byte(`[]`)))
	require.NoError(t, storage.Delete(ctx, key))
	require.NoError(t, storage.Delete(ctx, key))

	_, err := storage.Get(ctx, key)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCartStorage_RejectsEmptyKey(t *testing.T) {
	storage := openTestDB(t)
	assert.Error(t, storage.Set(context.Background(), "", []byte(`[]`)))
}
