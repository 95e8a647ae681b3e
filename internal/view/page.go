package view

import (
	"html/template"

	"github.com/saiko-shop/storefront/internal/service"
)

// Page renders the cart page rows and summary. Rows address their controls by
// product id and size.
type Page struct {
	cart     CartReader
	surface  *Surface
	checkout *service.Control
}

func NewPage(cart CartReader, surface *Surface, checkout *service.Control) *Page {
	return &Page{cart: cart, surface: surface, checkout: checkout}
}

type layoutData struct {
	Items   template.HTML
	Summary template.HTML
}

type summaryData struct {
	Subtotal string
	Total    string
	Checkout *service.Control
}

func (p *Page) Render() {
	if !p.surface.Has(RegionCartItems) {
		return
	}

	entries := p.cart.Entries()
	if len(entries) == 0 {
		p.surface.Set(RegionCartItems, "")
		p.surface.Set(RegionCartSummary, "")
		p.surface.Set(RegionCartLayout, mustFragment("cart_empty", nil))
		return
	}

	items := mustFragment("cart_items", struct{ Items []itemView }{itemViews(entries)})
	total := FormatPrice(p.cart.Total())
	summary := mustFragment("cart_summary", summaryData{
		Subtotal: total,
		Total:    total,
		Checkout: p.checkout,
	})
	p.surface.Set(RegionCartItems, items)
	p.surface.Set(RegionCartSummary, summary)
	p.surface.Set(RegionCartLayout, mustFragment("cart_layout", layoutData{Items: items, Summary: summary}))
}
