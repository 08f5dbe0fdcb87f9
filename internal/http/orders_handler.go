package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/cancellation"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type OrderResponseDTO struct {
	Order     domain.Order `json:"order"`
	CanCancel bool         `json:"canCancel"`
}

type CancelRequestDTO struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type CancelResponseDTO struct {
	Message string       `json:"message"`
	Order   domain.Order `json:"order"`
}

// GET /api/v1/cancellation/reasons
func (h *Handler) CancellationReasons(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cancellation.Reasons)
}

// GET /api/v1/orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	orders, err := h.orders.MyOrders(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

// GET /api/v1/orders/{orderID}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	order, err := h.orders.Order(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, OrderResponseDTO{Order: order, CanCancel: order.CanCancel()})
}

// GET /api/v1/orders/{orderID}/tracking
//
// The first call starts polling; later calls read the latest snapshot.
func (h *Handler) GetTracking(w http.ResponseWriter, r *http.Request) {
	t, err := sessionFrom(r.Context()).Tracker(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t.Snapshot())
}

// DELETE /api/v1/orders/{orderID}/tracking
func (h *Handler) CloseTracking(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).CloseTracker(chi.URLParam(r, "orderID"))
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/orders/{orderID}/cancel
func (h *Handler) RequestCancellation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	var req CancelRequestDTO
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	id := chi.URLParam(r, "orderID")
	order, err := h.orders.Order(ctx, id)
	if err != nil {
		handleError(w, err)
		return
	}

	reload := func(ctx context.Context) error {
		o, err := h.orders.Order(ctx, id)
		if err != nil {
			return err
		}
		order = o
		return nil
	}
	msg, err := sessionFrom(r.Context()).Customer.Request(ctx, order, req.Reason, req.Message, reload)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, CancelResponseDTO{Message: msg, Order: order})
}
