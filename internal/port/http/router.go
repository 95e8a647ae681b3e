package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/saiko-shop/storefront/internal/platform/logger"
	"github.com/saiko-shop/storefront/internal/platform/metrics"
)

// NewRouter mounts the storefront routes. Checkout routes exist only when the
// handler has a checkout adapter; /metrics only when m is set.
func NewRouter(h *CartHandler, log logger.Logger, m *metrics.Manager, session SessionOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Tracing("storefront/http"))
	r.Use(Logger(log, m))

	r.Get("/healthz", h.Healthz)
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(Session(session))

		r.Get("/", h.ShopPage)
		r.Get("/cart", h.CartPage)
		r.Get("/cart/regions", h.Regions)
		r.Delete("/cart", h.ClearCart)

		r.Post("/cart/items", h.AddItem)
		r.Put("/cart/items/{id}/{size}", h.SetQuantity)
		r.Delete("/cart/items/{id}/{size}", h.RemoveItem)
		r.Post("/cart/items/{id}/{size}/increase", h.IncreaseItem)
		r.Post("/cart/items/{id}/{size}/decrease", h.DecreaseItem)

		r.Post("/cart/drawer/{action}", h.Drawer)

		if h.checkout != nil {
			r.Post("/checkout", h.Checkout)
			r.Get("/checkout/complete", h.CheckoutComplete)
		}
	})

	return r
}
