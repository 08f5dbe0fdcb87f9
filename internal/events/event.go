package events

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const TypeOrderPlaced = "order.placed"

// Event is an order lifecycle fact, keyed by the shopper session it belongs to.
type Event struct {
	ID            uuid.UUID            `json:"id"`
	Type          string               `json:"type"`
	SessionID     string               `json:"sessionId"`
	OrderID       string               `json:"orderId"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod,omitempty"`
	TotalPrice    decimal.Decimal      `json:"totalPrice"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

func OrderPlaced(sessionID string, order domain.Order, method domain.PaymentMethod, total decimal.Decimal) Event {
	return Event{
		ID:            uuid.New(),
		Type:          TypeOrderPlaced,
		SessionID:     sessionID,
		OrderID:       order.ID,
		PaymentMethod: method,
		TotalPrice:    total,
		OccurredAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error {
	return f(ctx, e)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

type fanout []Publisher

// Fanout delivers to every publisher and joins their errors.
func Fanout(ps ...Publisher) Publisher {
	return fanout(ps)
}

func (f fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
