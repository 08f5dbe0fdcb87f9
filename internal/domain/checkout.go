package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CheckoutState string

const (
	CheckoutLoading    CheckoutState = "LOADING"
	CheckoutReady      CheckoutState = "READY"
	CheckoutSubmitting CheckoutState = "SUBMITTING"
	CheckoutSuccess    CheckoutState = "SUCCESS"
	CheckoutFailed     CheckoutState = "FAILED"
)

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutLoading:    {CheckoutReady},
	CheckoutReady:      {CheckoutSubmitting},
	CheckoutSubmitting: {CheckoutReady, CheckoutSuccess, CheckoutFailed},
	CheckoutFailed:     {CheckoutSubmitting, CheckoutReady},
}

// IsTerminal reports whether the attempt is over. Failed is retryable.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutSuccess
}

func (s CheckoutState) String() string {
	return string(s)
}

func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentOnline PaymentMethod = "ONLINE"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentOnline
}

type Totals struct {
	ItemsSubtotal decimal.Decimal `json:"itemsSubtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Shipping      decimal.Decimal `json:"shipping"`
	Total         decimal.Decimal `json:"total"`
}

// ShippingPolicy charges Fee below FreeThreshold and nothing at or above it.
type ShippingPolicy struct {
	FreeThreshold decimal.Decimal
	Fee           decimal.Decimal
}

func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		FreeThreshold: decimal.NewFromInt(999),
		Fee:           decimal.NewFromInt(49),
	}
}

func (p ShippingPolicy) ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.Fee
}

// Totals derives shipping and total for items. Discount is always zero.
func (p ShippingPolicy) Totals(items []CartLineItem) Totals {
	subtotal := Subtotal(items)
	shipping := p.ShippingFor(subtotal)
	discount := decimal.Zero
	return Totals{
		ItemsSubtotal: subtotal,
		Discount:      discount,
		Shipping:      shipping,
		Total:         subtotal.Sub(discount).Add(shipping).Round(2),
	}
}

// CheckoutSnapshot is the cart frozen at "proceed to checkout" time.
type CheckoutSnapshot struct {
	Items      []CartLineItem  `json:"cartItems"`
	Address    ShippingAddress `json:"address"`
	Totals     Totals          `json:"totals"`
	CapturedAt time.Time       `json:"capturedAt"`
}

// OrderPayload is the body of order creation, also forwarded verbatim to
// payment verification.
type OrderPayload struct {
	Items           []CartLineItem  `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
}

// NewOrderPayload builds the order body from a snapshot. Selected variants
// are not part of the order line.
func NewOrderPayload(snap CheckoutSnapshot, addr ShippingAddress, method PaymentMethod, totals Totals) OrderPayload {
	items := make([]CartLineItem, len(snap.Items))
	for i, it := range snap.Items {
		it.SelectedVariant = nil
		items[i] = it
	}
	return OrderPayload{
		Items:           items,
		ShippingAddress: addr,
		ItemsPrice:      totals.ItemsSubtotal,
		ShippingPrice:   totals.Shipping,
		TaxPrice:        decimal.Zero,
		TotalPrice:      totals.Total,
		PaymentMethod:   method,
	}
}
