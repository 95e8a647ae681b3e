package view

// Badge shows the header item count and hides itself when the cart is empty.
type Badge struct {
	cart    CartReader
	surface *Surface
}

func NewBadge(cart CartReader, surface *Surface) *Badge {
	return &Badge{cart: cart, surface: surface}
}

func (b *Badge) Render() {
	if !b.surface.Has(RegionBadge) {
		return
	}
	b.surface.Set(RegionBadge, mustFragment("badge", struct{ Count int }{b.cart.ItemCount()}))
}
