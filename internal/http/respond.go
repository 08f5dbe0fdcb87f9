package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/cancellation"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// an encode failure means the client has gone away
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

var badRequest = []error{
	cart.ErrEmptyCart,
	cart.ErrInvalidQuantity,
	cart.ErrInvalidProduct,
	cart.ErrIncompleteContact,
	checkout.ErrUnknownField,
	checkout.ErrInvalidMethod,
	checkout.ErrAddressIndex,
	cancellation.ErrUnknownReason,
	catalog.ErrShortPincode,
	admin.ErrInvalidStatus,
	admin.ErrEmptyTracking,
	admin.ErrNoPincode,
	admin.ErrNoSelection,
	admin.ErrInvalidAction,
	admin.ErrInvalidDays,
	admin.ErrInvalidTicketStatus,
	admin.ErrEmptyTicketUpdate,
	admin.ErrIncompleteTicket,
	app.ErrInvalidSessionID,
}

var conflict = []error{
	checkout.ErrNotReady,
	checkout.ErrNoPendingPayment,
	checkout.ErrPaymentMismatch,
	checkout.IllegalTransitionError,
	cancellation.ErrNotCancellable,
	cancellation.ErrNotPending,
}

// handleError maps domain and backend errors onto HTTP answers. Backend 4xx
// answers keep their status and message.
func handleError(w http.ResponseWriter, err error) {
	var verr *checkout.ValidationError
	var apiErr *api.Error

	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Please fill all required shipping fields.",
			Code:    "validation_failed",
			Details: verr.Field,
		})
	case errors.Is(err, checkout.ErrNoSnapshot):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:   err.Error(),
			Code:    "no_checkout_snapshot",
			Details: "/cart",
		})
	case errors.Is(err, checkout.ErrSubmitInFlight), errors.Is(err, cancellation.ErrInFlight):
		respondError(w, http.StatusConflict, "in_progress", err.Error())
	case errors.Is(err, checkout.ErrPaymentCancelled):
		respondError(w, http.StatusPaymentRequired, "payment_cancelled", "Payment failed. Try again.")
	case errors.Is(err, checkout.ErrPaymentFailed):
		respondError(w, http.StatusPaymentRequired, "payment_failed", "Payment failed. Try again.")
	case matchesAny(err, badRequest):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case matchesAny(err, conflict):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.As(err, &apiErr):
		status, code := http.StatusBadGateway, "backend_error"
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status, code = apiErr.StatusCode, "backend_rejected"
		}
		respondError(w, status, code, api.MessageOf(err, http.StatusText(status)))
	case errors.Is(err, api.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func matchesAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
