// Package view renders the cart into page regions: the header badge, the
// drawer overlay and the cart page.
package view

import (
	"errors"
	"fmt"
	"html/template"

	"github.com/saiko-shop/storefront/internal/domain/entity"
	"github.com/shopspring/decimal"
)

type Region string

const (
	RegionBadge       Region = "badge"
	RegionDrawer      Region = "drawer"
	RegionCartItems   Region = "cart-items"
	RegionCartSummary Region = "cart-summary"
	RegionCartLayout  Region = "cart-layout"
)

var ErrUnknownRegion = errors.New("unknown page region")

var knownRegions = map[Region]struct{}{
	RegionBadge:       {},
	RegionDrawer:      {},
	RegionCartItems:   {},
	RegionCartSummary: {},
	RegionCartLayout:  {},
}

// ShopRegions are the regions of every storefront page.
func ShopRegions() []Region {
	return []Region{RegionBadge, RegionDrawer}
}

// CartPageRegions are the regions of the cart page.
func CartPageRegions() []Region {
	return []Region{RegionBadge, RegionDrawer, RegionCartItems, RegionCartSummary, RegionCartLayout}
}

// ParseRegions validates region names sent by the page script.
func ParseRegions(names []string) ([]Region, error) {
	out := make([]Region, 0, len(names))
	for _, name := range names {
		r := Region(name)
		if _, ok := knownRegions[r]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
		}
		out = append(out, r)
	}
	return out, nil
}

// CartReader is the read side of the cart store that renderers depend on.
type CartReader interface {
	Entries() []entity.CartEntry
	Total() decimal.Decimal
	ItemCount() int
}

// Surface is the set of regions present for one request, with the markup
// last rendered into each. Renderers skip regions the surface lacks.
type Surface struct {
	present map[Region]struct{}
	html    map[Region]template.HTML
}

func NewSurface(regions ...Region) *Surface {
	s := &Surface{
		present: make(map[Region]struct{}, len(regions)),
		html:    make(map[Region]template.HTML, len(regions)),
	}
	for _, r := range regions {
		s.present[r] = struct{}{}
	}
	return s
}

func (s *Surface) Has(r Region) bool {
	_, ok := s.present[r]
	return ok
}

// Set replaces the region's markup. Absent regions are ignored.
func (s *Surface) Set(r Region, html template.HTML) {
	if !s.Has(r) {
		return
	}
	s.html[r] = html
}

func (s *Surface) HTML(r Region) template.HTML {
	return s.html[r]
}

// Rendered returns the markup of every region rendered so far.
func (s *Surface) Rendered() map[string]string {
	out := make(map[string]string, len(s.html))
	for r, h := range s.html {
		out[string(r)] = string(h)
	}
	return out
}
