package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/saiko-shop/storefront/internal/intent"
	"github.com/saiko-shop/storefront/internal/platform/logger"
	"github.com/saiko-shop/storefront/internal/service"
	"github.com/saiko-shop/storefront/internal/view"
)

// CartHandler serves the storefront pages and the cart intents. Each request
// loads the visitor's cart, runs at most one intent and re-renders the
// regions the page asked for.
type CartHandler struct {
	stores     *service.CartStores
	dispatcher *intent.Dispatcher
	checkout   *service.CheckoutAdapter
	catalog    []view.Product
	log        logger.Logger
	now        func() time.Time
}

// NewCartHandler wires the handler. A nil checkout adapter serves the local
// variant: plain payment link and no checkout routes.
func NewCartHandler(
	stores *service.CartStores,
	dispatcher *intent.Dispatcher,
	checkout *service.CheckoutAdapter,
	catalog []view.Product,
	log logger.Logger,
) *CartHandler {
	return &CartHandler{
		stores:     stores,
		dispatcher: dispatcher,
		checkout:   checkout,
		catalog:    catalog,
		log:        log,
		now:        time.Now,
	}
}

type drawerState struct {
	Open       bool `json:"open"`
	ScrollLock bool `json:"scrollLock"`
}

type stateResponse struct {
	Regions     map[string]string `json:"regions"`
	Drawer      drawerState       `json:"drawer"`
	ItemCount   int               `json:"itemCount"`
	Total       string            `json:"total"`
	Alert       string            `json:"alert,omitempty"`
	RedirectURL string            `json:"redirectUrl,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// mounted is one request's cart store with its renderers subscribed.
type mounted struct {
	store   *service.CartStore
	surface *view.Surface
	drawer  *view.Drawer
}

func (h *CartHandler) mount(r *http.Request, regions []view.Region, drawerOpen bool) *mounted {
	sessionID := SessionIDFromContext(r.Context())
	store := h.stores.New(sessionID)
	surface := view.NewSurface(regions...)

	var control *service.Control
	if h.checkout != nil {
		c := h.checkout.Control(sessionID)
		control = &c
	}

	badge := view.NewBadge(store, surface)
	drawer := view.NewDrawer(store, surface, view.DrawerOptions{Open: drawerOpen, Checkout: control})
	page := view.NewPage(store, surface, control)

	store.Subscribe(func(service.Event) { badge.Render() })
	store.Subscribe(drawer.OnCartEvent)
	store.Subscribe(func(service.Event) { page.Render() })

	store.Load(r.Context())
	return &mounted{store: store, surface: surface, drawer: drawer}
}

func (h *CartHandler) ShopPage(w http.ResponseWriter, r *http.Request) {
	m := h.mount(r, view.ShopRegions(), drawerOpen(r))
	h.renderPage(w, http.StatusOK, view.RenderShopPage, view.PageData{
		Title:      "Boutique",
		Surface:    m.surface,
		DrawerOpen: m.drawer.IsOpen(),
		Products:   h.catalog,
	})
}

func (h *CartHandler) CartPage(w http.ResponseWriter, r *http.Request) {
	h.renderCartPage(w, r, http.StatusOK, "")
}

func (h *CartHandler) renderCartPage(w http.ResponseWriter, r *http.Request, status int, alert string) {
	m := h.mount(r, view.CartPageRegions(), drawerOpen(r))
	h.renderPage(w, status, view.RenderCartPage, view.PageData{
		Title:      "Panier",
		Surface:    m.surface,
		DrawerOpen: m.drawer.IsOpen(),
		Alert:      alert,
	})
}

func (h *CartHandler) renderPage(w http.ResponseWriter, status int, render func(io.Writer, view.PageData) error, data view.PageData) {
	var buf bytes.Buffer
	if err := render(&buf, data); err != nil {
		h.log.Errorf("Failed to render %s page: %v", data.Title, err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Regions returns the current markup of the requested regions.
func (h *CartHandler) Regions(w http.ResponseWriter, r *http.Request) {
	regions, ok := h.requestedRegions(w, r)
	if !ok {
		return
	}
	m := h.mount(r, regions, drawerOpen(r))
	h.writeState(w, http.StatusOK, m, "", "")
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	h.run(w, r, intent.AddFromForm(r.Form, h.now()))
}

func (h *CartHandler) IncreaseItem(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.lineIntent(r, intent.KindIncrease))
}

func (h *CartHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.lineIntent(r, intent.KindDecrease))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.lineIntent(r, intent.KindRemove))
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	line := h.lineIntent(r, intent.KindSetQuantity)
	in, err := intent.SetQuantityFromForm(line.ID, line.Size, r.Form)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.run(w, r, in)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, intent.Intent{Kind: intent.KindClear})
}

// Drawer runs open, close, toggle and dismiss.
func (h *CartHandler) Drawer(w http.ResponseWriter, r *http.Request) {
	kind, err := h.dispatcher.ParseKind(chi.URLParam(r, "action"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	switch kind {
	case intent.KindOpen, intent.KindClose, intent.KindToggle, intent.KindDismiss:
	default:
		h.writeError(w, http.StatusNotFound, "unknown drawer action")
		return
	}
	h.run(w, r, intent.Intent{Kind: kind})
}

func (h *CartHandler) lineIntent(r *http.Request, kind intent.Kind) intent.Intent {
	return intent.Intent{
		Kind: kind,
		ID:   pathParam(r, "id"),
		Size: pathParam(r, "size"),
	}
}

// pathParam decodes a route segment. chi matches on RawPath when the path
// holds escapes such as %2F, and then hands the segment back still escaped.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

// run serializes the visitor's requests, dispatches the intent and answers
// with the re-rendered regions.
func (h *CartHandler) run(w http.ResponseWriter, r *http.Request, in intent.Intent) {
	regions, ok := h.requestedRegions(w, r)
	if !ok {
		return
	}

	unlock := h.stores.Lock(SessionIDFromContext(r.Context()))
	defer unlock()

	m := h.mount(r, regions, drawerOpen(r))
	if err := h.dispatcher.Dispatch(r.Context(), intent.Target{Store: m.store, Drawer: m.drawer}, in); err != nil {
		h.log.Warnf("Rejected intent %q: %v", in.Kind, err)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !wantsJSON(r) {
		http.Redirect(w, r, backURL(r), http.StatusSeeOther)
		return
	}
	h.writeState(w, http.StatusOK, m, "", "")
}

// Checkout hands the cart to the commerce backend.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	regions, ok := h.requestedRegions(w, r)
	if !ok {
		return
	}
	sessionID := SessionIDFromContext(r.Context())

	result, err := h.checkout.Checkout(r.Context(), sessionID)
	if err != nil {
		status, alert := http.StatusBadGateway, service.AlertRemoteFailure
		var checkoutErr *service.CheckoutError
		switch {
		case errors.Is(err, service.ErrCheckoutInFlight):
			status, alert = http.StatusConflict, ""
		case errors.As(err, &checkoutErr):
			alert = checkoutErr.Alert
			if errors.Is(err, service.ErrNoRemoteLineItems) {
				status = http.StatusUnprocessableEntity
			}
		}
		if !wantsJSON(r) {
			h.renderCartPage(w, r, status, alert)
			return
		}
		h.writeState(w, status, h.mount(r, regions, drawerOpen(r)), alert, "")
		return
	}

	if !wantsJSON(r) {
		http.Redirect(w, r, result.RedirectURL, http.StatusSeeOther)
		return
	}
	h.writeState(w, http.StatusOK, h.mount(r, regions, drawerOpen(r)), "", result.RedirectURL)
}

// CheckoutComplete is the return URL of a finished checkout. A visit without
// a started checkout goes back to the untouched cart.
func (h *CartHandler) CheckoutComplete(w http.ResponseWriter, r *http.Request) {
	if !h.checkout.Complete(r.Context(), SessionIDFromContext(r.Context())) {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *CartHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *CartHandler) requestedRegions(w http.ResponseWriter, r *http.Request) ([]view.Region, bool) {
	names := r.URL.Query()["region"]
	if len(names) == 0 {
		return view.ShopRegions(), true
	}
	regions, err := view.ParseRegions(names)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return regions, true
}

func (h *CartHandler) writeState(w http.ResponseWriter, status int, m *mounted, alert, redirectURL string) {
	h.writeJSON(w, status, stateResponse{
		Regions:     m.surface.Rendered(),
		Drawer:      drawerState{Open: m.drawer.IsOpen(), ScrollLock: m.drawer.ScrollLocked()},
		ItemCount:   m.store.ItemCount(),
		Total:       m.store.Total().String(),
		Alert:       alert,
		RedirectURL: redirectURL,
	})
}

func (h *CartHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *CartHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func drawerOpen(r *http.Request) bool {
	return r.URL.Query().Get("drawer") == "open"
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// backURL sends form posts back to the page they came from, on this host only.
func backURL(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" {
		return "/cart"
	}
	return (&url.URL{Path: ref.Path, RawQuery: ref.RawQuery}).String()
}
