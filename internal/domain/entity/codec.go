package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrMalformedCart = errors.New("malformed cart data")

// storedEntry is the persisted shape of a cart line. Price stays a JSON number.
type storedEntry struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Image    string      `json:"image"`
	Size     string      `json:"size"`
	Quantity int         `json:"quantity"`
}

// MarshalEntries encodes entries as the JSON array kept under the cart key.
func MarshalEntries(entries []CartEntry) ([]byte, error) {
	stored := make([]storedEntry, 0, len(entries))
	for _, e := range entries {
		stored = append(stored, storedEntry{
			ID:       e.ID,
			Name:     e.Name,
			Price:    json.Number(e.Price.String()),
			Image:    e.Image,
			Size:     e.Size,
			Quantity: e.Quantity,
		})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cart entries: %w", err)
	}
	return data, nil
}

// UnmarshalEntries decodes a persisted cart. Anything that is not an array of
// entries yields ErrMalformedCart; "null" and empty input decode to no entries.
// Duplicate keys are merged and quantities below 1 are raised to 1.
func UnmarshalEntries(data []byte) ([]CartEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []CartEntry{}, nil
	}

	var stored []storedEntry
	if err := json.Unmarshal(trimmed, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCart, err)
	}

	cart := NewCart()
	for i, s := range stored {
		price := decimal.Zero
		if s.Price != "" {
			p, err := decimal.NewFromString(s.Price.String())
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d price: %v", ErrMalformedCart, i, err)
			}
			price = p
		}
		cart.AddItem(CartEntry{
			ID:       s.ID,
			Size:     s.Size,
			Name:     s.Name,
			Price:    price,
			Image:    s.Image,
			Quantity: s.Quantity,
		})
	}
	return cart.Items, nil
}
