package intent

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/saiko-shop/storefront/internal/adapter/memory"
	"github.com/saiko-shop/storefront/internal/domain/entity"
	"github.com/saiko-shop/storefront/internal/platform/logger"
	"github.com/saiko-shop/storefront/internal/service"
	"github.com/saiko-shop/storefront/internal/view"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTarget(t *testing.T) (Target, *view.Surface) {
	t.Helper()
	stores := service.NewCartStores(memory.NewCartStorage(), "saiko_cart", logger.NewNop(), nil)
	store := stores.New("s1")
	surface := view.NewSurface(view.RegionDrawer)
	d := view.NewDrawer(store, surface, view.DrawerOptions{})
	store.Subscribe(d.OnCartEvent)
	store.Load(context.Background())
	return Target{Store: store, Drawer: d}, surface
}

func kiriTee(size string) entity.CartEntry {
	return entity.CartEntry{ID: "kiri-tee-01", Size: size, Name: "Kiri Tee", Price: decimal.RequireFromString("45"), Quantity: 1}
}

func TestDispatcher_AddOpensDrawer(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher()
	target, surface := newTarget(t)

	require.NoError(t, d.Dispatch(ctx, target, Intent{Kind: KindAdd, Entry: kiriTee("M")}))

	assert.Equal(t, 1, target.Store.ItemCount())
	assert.True(t, target.Drawer.IsOpen())
	assert.Contains(t, string(surface.HTML(view.RegionDrawer)), "Taille: M | Qté: 1")
}

func TestDispatcher_IncreaseDecreaseUseStoreQuantity(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher()
	target, _ := newTarget(t)
	target.Store.AddItem(ctx, kiriTee("M"))

	// the page may show a stale quantity; only id and size are sent
	require.NoError(t, d.Dispatch(ctx, target, Intent{Kind: KindIncrease, ID: "kiri-tee-01", Size: "M", Quantity: 40}))
	require.NoError(t, d.Dispatch(ctx, target, Intent{Kind: KindIncrease, ID: "kiri-tee-01", Size: "M"}))
	entry, _ := target.Store.Find("kiri-tee-01", "M")
	assert.Equal(t, 3, entry.Quantity)

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Dispatch(ctx, target, Intent{Kind: KindDecrease, ID: "kiri-tee-01", Size: "M"}))
	}
	entry, _ = target.Store.Find("kiri-tee-01", "M")
	assert.Equal(t, 1, entry.Quantity)
}

func TestDispatcher_IncreaseMissingLine(t *testing.T) {
	target, _ := newTarget(t)
	require.NoError(t, NewDispatcher().Dispatch(context.Background(), target, Intent{Kind: KindIncrease, ID: "ghost", Size: "M"}))
	assert.Empty(t, target.Store.Entries())
}

func TestDispatcher_RemoveSetQuantityClear(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher()
	target, _ := newTarget(t)
	target.Store.AddItem(ctx, kiriTee("S"))
	target.Store.AddItem(ctx, kiriTee("L"))

	require.NoError(t, d.Dispatch(ctx, target, Intent{Kind: KindSetQuantity, ID: "kiri-tee-01", Size: "L", Quantity: 4}))
	require.NoError(t, d.Dispatch(ctx, target, Intent{Kind: KindRemove, ID: "kiri-tee-01", Size: "S"}))
	assert.Equal(t, 4, target.Store.ItemCount())

	require.NoError(t, d.Dispatch(ctx, target, Intent{Kind: KindClear}))
	assert.Equal(t, 0, target.Store.ItemCount())
}

func TestDispatcher_DrawerIntents(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher()
	target, _ := newTarget(t)

	require.NoError(t, d.Dispatch(ctx, target, Intent{Kind: KindToggle}))
	assert.True(t, target.Drawer.ScrollLocked())
	require.NoError(t, d.Dispatch(ctx, target, Intent{Kind: KindDismiss}))
	assert.False(t, target.Drawer.ScrollLocked())
	require.NoError(t, d.Dispatch(ctx, target, Intent{Kind: KindOpen}))
	assert.True(t, target.Drawer.IsOpen())
	require.NoError(t, d.Dispatch(ctx, target, Intent{Kind: KindClose}))
	assert.False(t, target.Drawer.IsOpen())
}

func TestDispatcher_UnknownIntent(t *testing.T) {
	d := NewDispatcher()
	target, _ := newTarget(t)

	err := d.Dispatch(context.Background(), target, Intent{Kind: "wishlist"})
	assert.ErrorIs(t, err, ErrUnknownIntent)

	_, err = d.ParseKind("wishlist")
	assert.ErrorIs(t, err, ErrUnknownIntent)
	k, err := d.ParseKind("toggle")
	require.NoError(t, err)
	assert.Equal(t, KindToggle, k)
}

func TestAddFromForm(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	in := AddFromForm(url.Values{
		"id":    {"kiri-tee-01"},
		"name":  {"Kiri Tee"},
		"price": {"45.50"},
		"image": {"/img/kiri.jpg"},
		"size":  {"L"},
	}, now)
	assert.Equal(t, KindAdd, in.Kind)
	assert.Equal(t, "kiri-tee-01", in.Entry.ID)
	assert.Equal(t, "L", in.Entry.Size)
	assert.Equal(t, 1, in.Entry.Quantity)
	assert.True(t, decimal.RequireFromString("45.5").Equal(in.Entry.Price))

	defaults := AddFromForm(url.Values{"price": {"abc"}, "quantity": {"-2"}}, now)
	assert.Equal(t, "1700000000123", defaults.Entry.ID)
	assert.Equal(t, "Produit", defaults.Entry.Name)
	assert.Equal(t, "M", defaults.Entry.Size)
	assert.True(t, defaults.Entry.Price.IsZero())
	assert.Equal(t, 1, defaults.Entry.Quantity)
}

func TestSetQuantityFromForm(t *testing.T) {
	in, err := SetQuantityFromForm("kiri-tee-01", "M", url.Values{"quantity": {"3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, in.Quantity)

	_, err = SetQuantityFromForm("kiri-tee-01", "M", url.Values{"quantity": {"lots"}})
	assert.ErrorIs(t, err, ErrInvalidIntent)
}
