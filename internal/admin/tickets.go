package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	ErrInvalidTicketStatus = errors.New("invalid ticket status")
	ErrEmptyTicketUpdate   = errors.New("nothing to update")
)

func (s *Service) Tickets(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.backend.Tickets(ctx)
	if err != nil {
		s.notifier.Error("Failed to load tickets")
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

func (s *Service) UpdateTicket(ctx context.Context, id string, u domain.TicketUpdate) error {
	if u.Status == nil && u.AdminNote == nil {
		return ErrEmptyTicketUpdate
	}
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTicketStatus, *u.Status)
	}
	if err := s.backend.UpdateTicket(ctx, id, u); err != nil {
		s.notifier.Error("Update failed")
		return fmt.Errorf("update ticket %s: %w", id, err)
	}
	s.notifier.Success("Ticket updated")
	return nil
}
