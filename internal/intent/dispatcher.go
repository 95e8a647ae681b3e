// Package intent maps user intents from the page onto cart and drawer operations.
package intent

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/saiko-shop/storefront/internal/domain/entity"
	"github.com/saiko-shop/storefront/internal/service"
	"github.com/saiko-shop/storefront/internal/view"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindAdd         Kind = "add"
	KindRemove      Kind = "remove"
	KindIncrease    Kind = "increase"
	KindDecrease    Kind = "decrease"
	KindSetQuantity Kind = "set-quantity"
	KindClear       Kind = "clear"
	KindOpen        Kind = "open"
	KindClose       Kind = "close"
	KindToggle      Kind = "toggle"
	KindDismiss     Kind = "dismiss"
)

const (
	defaultProductName = "Produit"
	defaultSize        = "M"
)

var (
	ErrUnknownIntent = errors.New("unknown intent")
	ErrInvalidIntent = errors.New("invalid intent")
)

// Intent is one user action. Entry is used by add; ID, Size and Quantity by
// the line operations.
type Intent struct {
	Kind     Kind
	Entry    entity.CartEntry
	ID       string
	Size     string
	Quantity int
}

// Target is what an intent acts on for the current request.
type Target struct {
	Store  *service.CartStore
	Drawer *view.Drawer
}

type handlerFunc func(ctx context.Context, t Target, in Intent) error

// Dispatcher holds the intent table. It is built once and safe for concurrent use.
type Dispatcher struct {
	handlers map[Kind]handlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[Kind]handlerFunc{
		KindAdd:         add,
		KindRemove:      remove,
		KindIncrease:    adjust(1),
		KindDecrease:    adjust(-1),
		KindSetQuantity: setQuantity,
		KindClear:       clearCart,
		KindOpen:        drawer((*view.Drawer).Open),
		KindClose:       drawer((*view.Drawer).Close),
		KindToggle:      drawer((*view.Drawer).Toggle),
		KindDismiss:     drawer((*view.Drawer).Dismiss),
	}}
}

func (d *Dispatcher) Dispatch(ctx context.Context, t Target, in Intent) error {
	h, ok := d.handlers[in.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownIntent, in.Kind)
	}
	return h(ctx, t, in)
}

// ParseKind checks a kind against the table.
func (d *Dispatcher) ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := d.handlers[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownIntent, s)
	}
	return k, nil
}

func add(ctx context.Context, t Target, in Intent) error {
	t.Store.AddItem(ctx, in.Entry)
	return nil
}

func remove(ctx context.Context, t Target, in Intent) error {
	t.Store.RemoveItem(ctx, in.ID, in.Size)
	return nil
}

// adjust reads the current quantity from the store, never from the page.
func adjust(delta int) handlerFunc {
	return func(ctx context.Context, t Target, in Intent) error {
		entry, ok := t.Store.Find(in.ID, in.Size)
		if !ok {
			return nil
		}
		t.Store.UpdateQuantity(ctx, in.ID, in.Size, entry.Quantity+delta)
		return nil
	}
}

func setQuantity(ctx context.Context, t Target, in Intent) error {
	t.Store.UpdateQuantity(ctx, in.ID, in.Size, in.Quantity)
	return nil
}

func clearCart(ctx context.Context, t Target, _ Intent) error {
	t.Store.Clear(ctx)
	return nil
}

func drawer(op func(*view.Drawer)) handlerFunc {
	return func(_ context.Context, t Target, _ Intent) error {
		if t.Drawer == nil {
			return nil
		}
		op(t.Drawer)
		t.Drawer.Render()
		return nil
	}
}

// AddFromForm builds an add intent from the product form. Missing fields fall
// back to a timestamp id, "Produit", a zero price and size M.
func AddFromForm(form url.Values, now time.Time) Intent {
	entry := entity.CartEntry{
		ID:       strings.TrimSpace(form.Get("id")),
		Name:     strings.TrimSpace(form.Get("name")),
		Image:    strings.TrimSpace(form.Get("image")),
		Size:     strings.TrimSpace(form.Get("size")),
		Quantity: 1,
	}
	if entry.ID == "" {
		entry.ID = strconv.FormatInt(now.UnixMilli(), 10)
	}
	if entry.Name == "" {
		entry.Name = defaultProductName
	}
	if entry.Size == "" {
		entry.Size = defaultSize
	}

	price, err := decimal.NewFromString(strings.TrimSpace(form.Get("price")))
	if err != nil || price.IsNegative() {
		price = decimal.Zero
	}
	entry.Price = price

	if q, err := strconv.Atoi(form.Get("quantity")); err == nil && q > 0 {
		entry.Quantity = q
	}

	return Intent{Kind: KindAdd, Entry: entry}
}

// SetQuantityFromForm reads the quantity field of a set-quantity request.
func SetQuantityFromForm(id, size string, form url.Values) (Intent, error) {
	q, err := strconv.Atoi(strings.TrimSpace(form.Get("quantity")))
	if err != nil {
		return Intent{}, fmt.Errorf("%w: quantity %q", ErrInvalidIntent, form.Get("quantity"))
	}
	return Intent{Kind: KindSetQuantity, ID: id, Size: size, Quantity: q}, nil
}
