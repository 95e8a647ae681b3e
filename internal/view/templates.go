package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/saiko-shop/storefront/internal/domain/entity"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// templates are parsed once; fragments and full pages share one set.
var templates = template.Must(template.ParseFS(templateFS, "templates/*.gohtml"))

type itemView struct {
	ID       string
	Size     string
	Name     string
	Image    string
	Quantity int
	Price    string
}

func itemViews(entries []entity.CartEntry) []itemView {
	out := make([]itemView, 0, len(entries))
	for _, e := range entries {
		out = append(out, itemView{
			ID:       e.ID,
			Size:     e.Size,
			Name:     e.Name,
			Image:    e.Image,
			Quantity: e.Quantity,
			Price:    FormatPrice(e.Price),
		})
	}
	return out
}

func renderFragment(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

func mustFragment(name string, data interface{}) template.HTML {
	html, err := renderFragment(name, data)
	if err != nil {
		panic(err)
	}
	return html
}

// Product is one catalog card on the shop page.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Image string
	Sizes []string
}

func (p Product) DisplayPrice() string {
	return FormatPrice(p.Price)
}

// PageData feeds the full-page layouts.
type PageData struct {
	Title      string
	Surface    *Surface
	DrawerOpen bool
	Products   []Product
	Alert      string
}

func (d PageData) Region(name string) template.HTML {
	return d.Surface.HTML(Region(name))
}

// RenderShopPage writes the storefront page with its catalog.
func RenderShopPage(w io.Writer, data PageData) error {
	return templates.ExecuteTemplate(w, "shop.gohtml", data)
}

// RenderCartPage writes the cart page.
func RenderCartPage(w io.Writer, data PageData) error {
	return templates.ExecuteTemplate(w, "cart.gohtml", data)
}
