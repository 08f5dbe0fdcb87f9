package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// orderEnvelope accepts {"order": {...}} as well as a bare order document.
type orderEnvelope struct {
	Order domain.Order
}

func (e *orderEnvelope) UnmarshalJSON(b []byte) error {
	var wrapped struct {
		Order *domain.Order `json:"order"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	if wrapped.Order != nil {
		e.Order = *wrapped.Order
		return nil
	}
	return json.Unmarshal(b, &e.Order)
}

func (c *Client) CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.Order, error) {
	var resp orderEnvelope
	if err := c.post(ctx, "/orders", payload, &resp); err != nil {
		return domain.Order{}, err
	}
	return resp.Order, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]domain.Order, error) {
	var resp struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.get(ctx, "/orders/my-orders", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

func (c *Client) Order(ctx context.Context, id string) (domain.Order, error) {
	var resp orderEnvelope
	if err := c.get(ctx, "/orders/"+url.PathEscape(id), nil, &resp); err != nil {
		return domain.Order{}, err
	}
	return resp.Order, nil
}

func (c *Client) Tracking(ctx context.Context, orderID string) (domain.Tracking, error) {
	var resp domain.Tracking
	if err := c.get(ctx, "/orders/"+url.PathEscape(orderID)+"/tracking", nil, &resp); err != nil {
		return domain.Tracking{}, err
	}
	return resp, nil
}

type CancelRequest struct {
	ReasonOption string `json:"reasonOption"`
	Message      string `json:"message"`
}

// messageResponse is the {message} acknowledgement most mutations return.
type messageResponse struct {
	Message string `json:"message"`
}

// RequestCancellation files a customer cancellation and returns the backend's
// acknowledgement text, which may be empty.
func (c *Client) RequestCancellation(ctx context.Context, orderID string, req CancelRequest) (string, error) {
	var resp messageResponse
	if err := c.post(ctx, "/orders/"+url.PathEscape(orderID)+"/cancel", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

type CancelDecision struct {
	Action    string `json:"action"`
	RefundNow *bool  `json:"refundNow,omitempty"`
}

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

func (c *Client) HandleCancellation(ctx context.Context, orderID string, decision CancelDecision) (string, error) {
	var resp messageResponse
	if err := c.put(ctx, "/orders/"+url.PathEscape(orderID)+"/cancel/handle", decision, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// PaymentOrder is the gateway order handle the backend creates for ONLINE checkout.
type PaymentOrder struct {
	OrderID string          `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"`
	Key     string          `json:"key"`
}

func (c *Client) CreatePaymentOrder(ctx context.Context, amount decimal.Decimal) (PaymentOrder, error) {
	var resp PaymentOrder
	req := struct {
		Amount decimal.Decimal `json:"amount"`
	}{Amount: amount}
	if err := c.post(ctx, "/orders/razorpay/create", req, &resp); err != nil {
		return PaymentOrder{}, err
	}
	if resp.OrderID == "" {
		return PaymentOrder{}, fmt.Errorf("payment order response missing orderId")
	}
	return resp, nil
}

type VerifyPaymentRequest struct {
	PaymentID    string              `json:"razorpay_payment_id"`
	OrderID      string              `json:"razorpay_order_id"`
	Signature    string              `json:"razorpay_signature"`
	OrderPayload domain.OrderPayload `json:"orderPayload"`
}

func (c *Client) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (domain.Order, error) {
	var resp orderEnvelope
	if err := c.post(ctx, "/orders/razorpay/verify", req, &resp); err != nil {
		return domain.Order{}, err
	}
	return resp.Order, nil
}

type TrackingUpdate struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Location string `json:"location,omitempty"`
}

func (c *Client) AppendTracking(ctx context.Context, orderID string, update TrackingUpdate) error {
	return c.post(ctx, "/orders/"+url.PathEscape(orderID)+"/track", update, nil)
}
