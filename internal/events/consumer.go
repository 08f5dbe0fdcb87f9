package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CartResetter empties the cart of one shopper session.
type CartResetter interface {
	ClearCart(ctx context.Context, sessionID string) error
}

// CartClearer empties a session's cart once its order has been placed,
// whichever storefront replica placed it.
type CartClearer struct {
	reader *kafka.Reader
	carts  CartResetter
	logger *zap.Logger
}

func NewCartClearer(carts CartResetter, logger *zap.Logger, brokers ...string) *CartClearer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    Topic,
		GroupID:  "storefront-cart-clearer",
		MaxBytes: 10e6, // 10MB
	})
	return &CartClearer{reader: reader, carts: carts, logger: logger}
}

func (c *CartClearer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				c.logger.Warn("error reading message", zap.Error(err))
			}
			continue
		}
		c.handle(ctx, m.Value)
	}
}

func (c *CartClearer) handle(ctx context.Context, value []byte) {
	var e Event
	if err := json.Unmarshal(value, &e); err != nil {
		c.logger.Warn("error parsing message", zap.Error(err))
		return
	}
	if e.Type != TypeOrderPlaced {
		return
	}
	if e.SessionID == "" {
		c.logger.Warn("order event without session", zap.String("order_id", e.OrderID))
		return
	}
	if err := c.carts.ClearCart(ctx, e.SessionID); err != nil {
		c.logger.Error("failed to clear cart",
			zap.String("session_id", e.SessionID), zap.String("order_id", e.OrderID), zap.Error(err))
		return
	}
	c.logger.Info("cart cleared after order",
		zap.String("session_id", e.SessionID), zap.String("order_id", e.OrderID))
}

func (c *CartClearer) Close() error {
	return c.reader.Close()
}
