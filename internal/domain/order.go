package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Stage is one of the fixed order-lifecycle statuses.
type Stage string

const (
	StageOrdered        Stage = "Ordered"
	StagePacked         Stage = "Packed"
	StageShipped        Stage = "Shipped"
	StageOutForDelivery Stage = "Out for Delivery"
	StageDelivered      Stage = "Delivered"
)

// Stages in lifecycle order.
var Stages = []Stage{StageOrdered, StagePacked, StageShipped, StageOutForDelivery, StageDelivered}

// ParseStage matches status exactly against the known stages.
func ParseStage(status string) (Stage, bool) {
	for _, s := range Stages {
		if string(s) == status {
			return s, true
		}
	}
	return "", false
}

// StageIndex returns the position of status in Stages. Unknown values map to 0.
func StageIndex(status string) int {
	for i, s := range Stages {
		if string(s) == status {
			return i
		}
	}
	return 0
}

// Progress is StageIndex scaled to [0, 1].
func Progress(status string) float64 {
	return float64(StageIndex(status)) / float64(len(Stages)-1)
}

// IsDelivered compares against the terminal stage ignoring case.
func IsDelivered(status string) bool {
	return strings.EqualFold(status, string(StageDelivered))
}

// Cancellable reports whether a customer may still ask to cancel.
func (s Stage) Cancellable() bool {
	switch s {
	case StageOrdered, StagePacked, StageShipped:
		return true
	}
	return false
}

type CancellationResult string

const (
	CancellationApproved CancellationResult = "approved"
	CancellationRejected CancellationResult = "rejected"
)

type CancellationRequest struct {
	Requested          bool               `json:"requested"`
	RequestedAt        *time.Time         `json:"requestedAt,omitempty"`
	ReasonFromDropdown string             `json:"reasonFromDropdown,omitempty"`
	Message            string             `json:"message,omitempty"`
	ByUserContact      string             `json:"byUserContact,omitempty"`
	Processed          bool               `json:"processed"`
	Result             CancellationResult `json:"result,omitempty"`
	RefundInitiated    bool               `json:"refundInitiated,omitempty"`
	ProcessedAt        *time.Time         `json:"processedAt,omitempty"`
}

// Pending reports whether an admin decision is still outstanding.
func (c *CancellationRequest) Pending() bool {
	return c != nil && c.Requested && !c.Processed
}

type TrackingEvent struct {
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	Location  string          `json:"location,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type Courier struct {
	Name       string `json:"name,omitempty"`
	TrackingID string `json:"trackingId,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Tracking is the body of GET /orders/:id/tracking.
type Tracking struct {
	Status  string          `json:"status"`
	Events  []TrackingEvent `json:"tracking"`
	Courier *Courier        `json:"courier,omitempty"`
}

type OrderUser struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Order is the client's read view of a server-owned order.
type Order struct {
	ID              string               `json:"id"`
	User            *OrderUser           `json:"user,omitempty"`
	Items           []CartLineItem       `json:"items"`
	ShippingAddress ShippingAddress      `json:"shippingAddress"`
	PaymentMethod   PaymentMethod        `json:"paymentMethod"`
	PaymentStatus   string               `json:"paymentStatus,omitempty"`
	PaidAt          *time.Time           `json:"paidAt,omitempty"`
	ItemsPrice      decimal.Decimal      `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal      `json:"shippingPrice"`
	TotalPrice      decimal.Decimal      `json:"totalPrice"`
	Status          string               `json:"status"`
	Tracking        []TrackingEvent      `json:"tracking,omitempty"`
	Cancellation    *CancellationRequest `json:"cancellation,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// CanCancel reports whether the order's current status still allows a
// customer cancellation request.
func (o Order) CanCancel() bool {
	s, ok := ParseStage(o.Status)
	return ok && s.Cancellable()
}

func (o *Order) UnmarshalJSON(b []byte) error {
	type plain Order
	var raw struct {
		plain
		MongoID string          `json:"_id"`
		User    json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*o = Order(raw.plain)
	o.ID = firstNonEmpty(raw.MongoID, o.ID)
	o.User = userOf(raw.User)
	return nil
}

// userOf accepts a populated {name, email} document; a bare id yields nil.
func userOf(raw json.RawMessage) *OrderUser {
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var u OrderUser
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil
	}
	return &u
}
