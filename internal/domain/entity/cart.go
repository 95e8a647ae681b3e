package entity

import (
	"github.com/shopspring/decimal"
)

// CartEntry is one distinct product and size combination in the cart.
type CartEntry struct {
	ID       string
	Size     string
	Name     string
	Price    decimal.Decimal
	Image    string
	Quantity int
}

// LineTotal returns price multiplied by quantity.
func (e CartEntry) LineTotal() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

func (e CartEntry) matches(id, size string) bool {
	return e.ID == id && e.Size == size
}

// Cart keeps entries in insertion order. The pair (ID, Size) is unique and
// every quantity is at least 1.
type Cart struct {
	Items []CartEntry
}

func NewCart() *Cart {
	return &Cart{Items: make([]CartEntry, 0)}
}

func (c *Cart) GetItem(id, size string) (*CartEntry, int) {
	for i := range c.Items {
		if c.Items[i].matches(id, size) {
			return &c.Items[i], i
		}
	}
	return nil, -1
}

// AddItem merges entry into an existing line or appends it. A non-positive
// quantity counts as 1.
func (c *Cart) AddItem(entry CartEntry) CartEntry {
	quantity := entry.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	if item, _ := c.GetItem(entry.ID, entry.Size); item != nil {
		item.Quantity += quantity
		return *item
	}

	entry.Quantity = quantity
	c.Items = append(c.Items, entry)
	return entry
}

// UpdateItemQuantity clamps quantity to 1 and reports whether a line matched.
func (c *Cart) UpdateItemQuantity(id, size string, quantity int) bool {
	item, _ := c.GetItem(id, size)
	if item == nil {
		return false
	}
	if quantity < 1 {
		quantity = 1
	}
	item.Quantity = quantity
	return true
}

// RemoveItem reports whether a line was removed.
func (c *Cart) RemoveItem(id, size string) bool {
	_, index := c.GetItem(id, size)
	if index == -1 {
		return false
	}
	c.Items = append(c.Items[:index], c.Items[index+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.Items = make([]CartEntry, 0)
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Snapshot returns a copy of the entries that callers may keep.
func (c *Cart) Snapshot() []CartEntry {
	out := make([]CartEntry, len(c.Items))
	copy(out, c.Items)
	return out
}
