// Package handler implements the storefront HTTP JSON API.
package handler

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/stats"
)

// Handler serves the storefront API, delegating business logic to the
// injected domain services.
type Handler struct {
	catalog   catalog.Repository
	ledger    *cart.Ledger
	finalizer *order.Finalizer
	registry  *discount.Registry
	stats     stats.Source
}

// New constructs a Handler with the required domain dependencies.
func New(
	cat catalog.Repository,
	ledger *cart.Ledger,
	finalizer *order.Finalizer,
	registry *discount.Registry,
	src stats.Source,
) *Handler {
	return &Handler{
		catalog:   cat,
		ledger:    ledger,
		finalizer: finalizer,
		registry:  registry,
		stats:     src,
	}
}

// Routes registers all API routes on the given mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/items", h.ListItems)
	mux.HandleFunc("GET /api/categories", h.ListCategories)
	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/add", h.AddToCart)
	mux.HandleFunc("POST /api/cart/remove", h.RemoveFromCart)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
	mux.HandleFunc("POST /api/admin/generate-discount", h.GenerateDiscount)
	mux.HandleFunc("GET /api/admin/stats", h.Stats)
}
