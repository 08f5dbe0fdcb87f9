package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"go.uber.org/zap"
)

const msgTicketRaised = "Our customer executive will contact you on WhatsApp within 24 hours."

var ErrIncompleteTicket = errors.New("all ticket fields are required")

type TicketCreator interface {
	CreateTicket(ctx context.Context, t api.NewTicket) (string, error)
}

// Support is the shopper-facing side of the ticket desk.
type Support struct {
	creator  TicketCreator
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewSupport(creator TicketCreator, notifier notify.Notifier, logger *zap.Logger) *Support {
	return &Support{creator: creator, notifier: notifier, logger: logger}
}

// Raise files a ticket. Every field is required.
func (s *Support) Raise(ctx context.Context, t api.NewTicket) error {
	for _, v := range []string{t.Name, t.Email, t.WhatsApp, t.Message} {
		if strings.TrimSpace(v) == "" {
			s.notifier.Error("Please fill all fields")
			return ErrIncompleteTicket
		}
	}
	if _, err := s.creator.CreateTicket(ctx, t); err != nil {
		s.logger.Warn("ticket creation failed", zap.Error(err))
		s.notifier.Error("Failed to raise ticket")
		return fmt.Errorf("raise ticket: %w", err)
	}
	s.notifier.Success(msgTicketRaised)
	return nil
}
