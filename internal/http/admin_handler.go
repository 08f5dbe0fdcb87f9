package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cancellation"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type AdminOrderResponseDTO struct {
	Order        domain.Order           `json:"order"`
	Cancellation cancellation.PanelView `json:"cancellation"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

type RefundNowRequestDTO struct {
	RefundNow bool `json:"refundNow"`
}

type DecisionResponseDTO struct {
	Message string `json:"message"`
	AdminOrderResponseDTO
}

// GET /api/v1/admin/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	stats, err := h.adminService(sessionFrom(r.Context())).Dashboard(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GET /api/v1/admin/orders
func (h *Handler) AdminOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	orders, err := h.adminService(sessionFrom(r.Context())).Orders(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

// GET /api/v1/admin/orders/{orderID}
//
// The order is loaded once per panel; ?refresh=true drops the panel and
// loads it again.
func (h *Handler) AdminOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	sess := sessionFrom(r.Context())
	id := chi.URLParam(r, "orderID")
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		sess.ClosePanel(id)
	}
	panel, err := sess.Panel(ctx, id)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, panelResponse(panel))
}

func panelResponse(p *cancellation.Panel) AdminOrderResponseDTO {
	return AdminOrderResponseDTO{Order: p.Order(), Cancellation: p.View()}
}

// PUT /api/v1/admin/orders/{orderID}/status
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	var req UpdateStatusRequestDTO
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	sess := sessionFrom(r.Context())
	id := chi.URLParam(r, "orderID")
	if err := h.adminService(sess).UpdateStatus(ctx, id, req.Status); err != nil {
		handleError(w, err)
		return
	}
	sess.ClosePanel(id)
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/admin/orders/{orderID}/tracking
func (h *Handler) AppendTracking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	var req api.TrackingUpdate
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	sess := sessionFrom(r.Context())
	id := chi.URLParam(r, "orderID")
	if err := h.adminService(sess).AppendTracking(ctx, id, req); err != nil {
		handleError(w, err)
		return
	}
	sess.ClosePanel(id)
	w.WriteHeader(http.StatusCreated)
}

// PUT /api/v1/admin/orders/{orderID}/cancellation/refund
func (h *Handler) SetRefundNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	var req RefundNowRequestDTO
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	panel, err := sessionFrom(r.Context()).Panel(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		handleError(w, err)
		return
	}
	panel.SetRefundNow(req.RefundNow)
	respondJSON(w, http.StatusOK, panelResponse(panel))
}

// POST /api/v1/admin/orders/{orderID}/cancellation/approve
func (h *Handler) ApproveCancellation(w http.ResponseWriter, r *http.Request) {
	h.decideCancellation(w, r, (*cancellation.Panel).Approve)
}

// POST /api/v1/admin/orders/{orderID}/cancellation/reject
func (h *Handler) RejectCancellation(w http.ResponseWriter, r *http.Request) {
	h.decideCancellation(w, r, (*cancellation.Panel).Reject)
}

type decision func(*cancellation.Panel, context.Context) (string, error)

func (h *Handler) decideCancellation(w http.ResponseWriter, r *http.Request, decide decision) {
	ctx, cancel := h.call(r)
	defer cancel()

	panel, err := sessionFrom(r.Context()).Panel(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		handleError(w, err)
		return
	}
	msg, err := decide(panel, ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, DecisionResponseDTO{Message: msg, AdminOrderResponseDTO: panelResponse(panel)})
}

// GET /api/v1/admin/pincodes?page=&limit=&search=&state=
func (h *Handler) ListPincodes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	q := r.URL.Query()
	query := domain.PincodeQuery{Search: q.Get("search"), State: q.Get("state")}
	var err error
	if v := q.Get("page"); v != "" {
		if query.Page, err = strconv.Atoi(v); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_argument", "page must be a number")
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if query.Limit, err = strconv.Atoi(v); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_argument", "limit must be a number")
			return
		}
	}

	page, err := h.adminService(sessionFrom(r.Context())).Pincodes(ctx, query)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// POST /api/v1/admin/pincodes
func (h *Handler) CreatePincode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	var req domain.Pincode
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.adminService(sessionFrom(r.Context())).CreatePincode(ctx, req); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// PUT /api/v1/admin/pincodes/bulk
func (h *Handler) BulkUpdatePincodes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	var req domain.PincodeBulkUpdate
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.adminService(sessionFrom(r.Context())).BulkUpdatePincodes(ctx, req); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/v1/admin/pincodes/{pin}
func (h *Handler) UpdatePincode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	var req domain.Pincode
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	req.Pincode = chi.URLParam(r, "pin")
	if err := h.adminService(sessionFrom(r.Context())).UpdatePincode(ctx, req); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/admin/tickets
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	tickets, err := h.adminService(sessionFrom(r.Context())).Tickets(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	respondJSON(w, http.StatusOK, tickets)
}

// PUT /api/v1/admin/tickets/{ticketID}
func (h *Handler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	var req domain.TicketUpdate
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.adminService(sessionFrom(r.Context())).UpdateTicket(ctx, chi.URLParam(r, "ticketID"), req); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
