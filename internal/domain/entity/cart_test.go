package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tee(size string, quantity int) CartEntry {
	return CartEntry{
		ID:       "kiri-tee-01",
		Size:     size,
		Name:     "Kiri Tee",
		Price:    decimal.NewFromInt(45),
		Image:    "/img/kiri.jpg",
		Quantity: quantity,
	}
}

func TestCart_AddItem_MergesSameKey(t *testing.T) {
	cart := NewCart()

	cart.AddItem(tee("M", 1))
	cart.AddItem(tee("M", 2))
	cart.AddItem(tee("M", 0))

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, 4, cart.ItemCount())
}

func TestCart_AddItem_DifferentSizeIsNewLine(t *testing.T) {
	cart := NewCart()

	cart.AddItem(tee("M", 1))
	cart.AddItem(tee("L", -3))

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "M", cart.Items[0].Size)
	assert.Equal(t, "L", cart.Items[1].Size)
	assert.Equal(t, 1, cart.Items[1].Quantity)
}

func TestCart_UpdateItemQuantity_Clamps(t *testing.T) {
	cart := NewCart()
	cart.AddItem(tee("M", 3))

	for _, q := range []int{0, -1, -100} {
		assert.True(t, cart.UpdateItemQuantity("kiri-tee-01", "M", q))
		assert.Equal(t, 1, cart.Items[0].Quantity, "quantity %d", q)
	}

	assert.True(t, cart.UpdateItemQuantity("kiri-tee-01", "M", 7))
	assert.Equal(t, 7, cart.Items[0].Quantity)

	assert.False(t, cart.UpdateItemQuantity("kiri-tee-01", "XL", 2))
	assert.Len(t, cart.Items, 1)
}

func TestCart_RemoveItem(t *testing.T) {
	cart := NewCart()
	cart.AddItem(tee("S", 1))
	cart.AddItem(tee("M", 2))
	cart.AddItem(tee("L", 1))

	assert.True(t, cart.RemoveItem("kiri-tee-01", "M"))
	assert.False(t, cart.RemoveItem("kiri-tee-01", "M"))

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "S", cart.Items[0].Size)
	assert.Equal(t, "L", cart.Items[1].Size)
	assert.Equal(t, 2, cart.ItemCount())
	assert.True(t, decimal.NewFromInt(90).Equal(cart.Total()))
}

func TestCart_Total(t *testing.T) {
	cart := NewCart()
	assert.True(t, decimal.Zero.Equal(cart.Total()))

	cart.AddItem(tee("M", 2))
	cart.AddItem(CartEntry{ID: "tanada-hoodie-01", Size: "L", Price: decimal.RequireFromString("89.90"), Quantity: 1})

	assert.Equal(t, "179.9", cart.Total().String())
}

func TestCart_Snapshot_IsACopy(t *testing.T) {
	cart := NewCart()
	cart.AddItem(tee("M", 1))

	snap := cart.Snapshot()
	snap[0].Quantity = 99

	assert.Equal(t, 1, cart.Items[0].Quantity)
}
