package checkout

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentHandle is what the gateway widget needs to collect an ONLINE payment.
type PaymentHandle struct {
	GatewayOrderID string          `json:"orderId"`
	Amount         decimal.Decimal `json:"amount"`
	Key            string          `json:"key"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Prefill        Prefill         `json:"prefill"`
}

type Prefill struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// GatewayResponse is the success callback payload of the gateway widget.
type GatewayResponse struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

// PaymentGateway opens the gateway for handle and blocks until the shopper
// pays, fails or dismisses it. A dismissal returns ErrPaymentCancelled.
type PaymentGateway interface {
	Open(ctx context.Context, handle PaymentHandle) (GatewayResponse, error)
}
