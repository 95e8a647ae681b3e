package view

import (
	"github.com/saiko-shop/storefront/internal/service"
)

type DrawerOptions struct {
	Open bool
	// Checkout is the checkout button state; nil renders the plain payment link.
	Checkout *service.Control
}

// Drawer is the cart overlay. It opens itself when an item is added.
type Drawer struct {
	cart     CartReader
	surface  *Surface
	checkout *service.Control
	open     bool
}

func NewDrawer(cart CartReader, surface *Surface, opts DrawerOptions) *Drawer {
	return &Drawer{
		cart:     cart,
		surface:  surface,
		checkout: opts.Checkout,
		open:     opts.Open,
	}
}

type drawerData struct {
	Empty    bool
	Items    []itemView
	Total    string
	Checkout *service.Control
}

func (d *Drawer) Render() {
	if !d.surface.Has(RegionDrawer) {
		return
	}
	entries := d.cart.Entries()
	d.surface.Set(RegionDrawer, mustFragment("drawer", drawerData{
		Empty:    len(entries) == 0,
		Items:    itemViews(entries),
		Total:    FormatPrice(d.cart.Total()),
		Checkout: d.checkout,
	}))
}

// OnCartEvent is the drawer's render hook on the cart store.
func (d *Drawer) OnCartEvent(ev service.Event) {
	if ev.Kind == service.EventItemAdded {
		d.open = true
	}
	d.Render()
}

func (d *Drawer) Open() {
	d.open = true
}

func (d *Drawer) Close() {
	d.open = false
}

func (d *Drawer) Toggle() {
	d.open = !d.open
}

// Dismiss is the escape key: it closes an open drawer and ignores a closed one.
func (d *Drawer) Dismiss() {
	if d.open {
		d.Close()
	}
}

func (d *Drawer) IsOpen() bool {
	return d.open
}

// ScrollLocked reports whether the page behind the drawer must not scroll.
func (d *Drawer) ScrollLocked() bool {
	return d.open
}
