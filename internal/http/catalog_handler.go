package http

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/go-chi/chi/v5"
)

// GET /api/v1/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	products, err := h.products.Products(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// GET /api/v1/products/{productID}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	product, err := h.products.Product(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// GET /api/v1/pincodes/check/{pin}
func (h *Handler) CheckPincode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	res, err := sessionFrom(r.Context()).Delivery.Check(ctx, chi.URLParam(r, "pin"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// POST /api/v1/tickets
func (h *Handler) RaiseTicket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	var req api.NewTicket
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	sess := sessionFrom(r.Context())
	if err := admin.NewSupport(h.tickets, sess.Notifier, h.logger).Raise(ctx, req); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}
