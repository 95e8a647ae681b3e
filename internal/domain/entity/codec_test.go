package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntries_RoundTripKeepsOrderAndQuantities(t *testing.T) {
	entries := []CartEntry{
		tee("L", 2),
		{ID: "tanada-hoodie-01", Size: "S", Name: "Tanada Hoodie", Price: decimal.RequireFromString("89.90"), Image: "/img/tanada.jpg", Quantity: 1},
		tee("S", 5),
	}

	data, err := MarshalEntries(entries)
	require.NoError(t, err)

	decoded, err := UnmarshalEntries(data)
	require.NoError(t, err)
	require.Len(t, decoded, len(entries))
	for i := range entries {
		assert.Equal(t, entries[i].ID, decoded[i].ID)
		assert.Equal(t, entries[i].Size, decoded[i].Size)
		assert.Equal(t, entries[i].Name, decoded[i].Name)
		assert.Equal(t, entries[i].Image, decoded[i].Image)
		assert.Equal(t, entries[i].Quantity, decoded[i].Quantity)
		assert.True(t, entries[i].Price.Equal(decoded[i].Price), "price of entry %d", i)
	}
}

func TestMarshalEntries_PriceIsANumber(t *testing.T) {
	data, err := MarshalEntries([]CartEntry{tee("M", 1)})
	require.NoError(t, err)

	assert.JSONEq(t,
		`[{"id":"kiri-tee-01","name":"Kiri Tee","price":45,"image":"/img/kiri.jpg","size":"M","quantity":1}]`,
		string(data))
}

func TestUnmarshalEntries_Empty(t *testing.T) {
	for _, raw := range []string{"", "  ", "null", "[]"} {
		entries, err := UnmarshalEntries([]byte(raw))
		require.NoError(t, err, "input %q", raw)
		assert.Empty(t, entries)
	}
}

func TestUnmarshalEntries_Malformed(t *testing.T) {
	for _, raw := range []string{"{", `{"id":"x"}`, `"cart"`, `[{"price":"abc"}]`, `[{"quantity":"two"}]`} {
		_, err := UnmarshalEntries([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedCart, "input %q", raw)
	}
}

func TestUnmarshalEntries_RepairsQuantitiesAndDuplicates(t *testing.T) {
	raw := `[
		{"id":"kiri-tee-01","size":"M","price":45,"quantity":0},
		{"id":"kiri-tee-01","size":"M","price":45,"quantity":2}
	]`

	entries, err := UnmarshalEntries([]byte(raw))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Quantity)
}
