package http

import (
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

type UpdateDraftRequestDTO struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type SelectAddressRequestDTO struct {
	Index int `json:"index"`
}

type PaymentMethodRequestDTO struct {
	Method domain.PaymentMethod `json:"paymentMethod"`
}

type PaymentFailureRequestDTO struct {
	Reason    string `json:"reason"`
	Cancelled bool   `json:"cancelled"`
}

type SubmitResponseDTO struct {
	checkout.Result
	View checkout.View `json:"checkout"`
}

// GET /api/v1/checkout
func (h *Handler) LoadCheckout(w http.ResponseWriter, r *http.Request) {
	co := sessionFrom(r.Context()).Checkout()
	if err := co.Load(r.Context()); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, co.View())
}

// PUT /api/v1/checkout/draft
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req UpdateDraftRequestDTO
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	co := sessionFrom(r.Context()).Checkout()
	if err := co.UpdateDraft(r.Context(), req.Field, req.Value); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, co.View())
}

// POST /api/v1/checkout/addresses
func (h *Handler) SaveAddress(w http.ResponseWriter, r *http.Request) {
	co := sessionFrom(r.Context()).Checkout()
	if err := co.SaveAddress(r.Context()); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, co.View())
}

// PUT /api/v1/checkout/addresses/selected
func (h *Handler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	var req SelectAddressRequestDTO
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	co := sessionFrom(r.Context()).Checkout()
	if err := co.SelectAddress(req.Index); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, co.View())
}

// PUT /api/v1/checkout/payment-method
func (h *Handler) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req PaymentMethodRequestDTO
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	co := sessionFrom(r.Context()).Checkout()
	if err := co.SetPaymentMethod(req.Method); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, co.View())
}

// POST /api/v1/checkout/submit
//
// COD answers with the placed order. ONLINE answers 202 with the gateway
// handle; the UI opens the gateway and reports back on /payment/success or
// /payment/failure.
func (h *Handler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	co := sessionFrom(r.Context()).Checkout()
	res, err := co.Submit(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	status := http.StatusCreated
	if res.Payment != nil {
		status = http.StatusAccepted
	}
	respondJSON(w, status, SubmitResponseDTO{Result: res, View: co.View()})
}

// POST /api/v1/checkout/payment/success
func (h *Handler) PaymentSucceeded(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	var req checkout.GatewayResponse
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	co := sessionFrom(r.Context()).Checkout()
	res, err := co.PaymentSucceeded(ctx, req)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, SubmitResponseDTO{Result: res, View: co.View()})
}

// POST /api/v1/checkout/payment/failure
func (h *Handler) PaymentFailed(w http.ResponseWriter, r *http.Request) {
	var req PaymentFailureRequestDTO
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	co := sessionFrom(r.Context()).Checkout()
	err := co.PaymentFailed(req.Reason, req.Cancelled)
	if err != nil && !errors.Is(err, checkout.ErrPaymentFailed) && !errors.Is(err, checkout.ErrPaymentCancelled) {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, co.View())
}

// POST /api/v1/checkout/pay
//
// Only routed when an in-process gateway is configured. Runs the whole
// submission, including the gateway round trip, in one request.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	co := sessionFrom(r.Context()).Checkout()
	res, err := co.Pay(ctx, h.gateway)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, SubmitResponseDTO{Result: res, View: co.View()})
}
