package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidStatus = errors.New("invalid order status")
	ErrEmptyTracking = errors.New("tracking status is required")
)

// Backend is the admin slice of the REST API.
type Backend interface {
	AdminOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.Stage) error
	AppendTracking(ctx context.Context, orderID string, update api.TrackingUpdate) error
	AdminUsers(ctx context.Context) ([]domain.AdminUser, error)
	AdminProducts(ctx context.Context) ([]domain.Product, error)

	Pincodes(ctx context.Context, q domain.PincodeQuery) (domain.PincodePage, error)
	CreatePincode(ctx context.Context, p domain.Pincode) error
	BulkUpdatePincodes(ctx context.Context, u domain.PincodeBulkUpdate) error
	UpdatePincode(ctx context.Context, p domain.Pincode) error

	Tickets(ctx context.Context) ([]domain.Ticket, error)
	UpdateTicket(ctx context.Context, id string, u domain.TicketUpdate) error
}

type Service struct {
	backend  Backend
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewService(backend Backend, notifier notify.Notifier, logger *zap.Logger) *Service {
	return &Service{backend: backend, notifier: notifier, logger: logger}
}

func (s *Service) Orders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.backend.AdminOrders(ctx)
	if err != nil {
		s.notifier.Error("Failed to load orders")
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order to one of the five lifecycle stages. Any stage
// may be set; the backend decides whether the move is allowed.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) error {
	stage, ok := domain.ParseStage(status)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.backend.UpdateOrderStatus(ctx, id, stage); err != nil {
		s.logger.Warn("order status update failed", zap.String("order_id", id), zap.Error(err))
		s.notifier.Error("Failed to update status")
		return fmt.Errorf("update status: %w", err)
	}
	s.logger.Info("order status updated", zap.String("order_id", id), zap.String("status", status))
	s.notifier.Success("Order status updated!")
	return nil
}

// AppendTracking adds a timeline entry to an order. The status is free text
// so couriers can report intermediate events.
func (s *Service) AppendTracking(ctx context.Context, id string, update api.TrackingUpdate) error {
	update.Status = strings.TrimSpace(update.Status)
	if update.Status == "" {
		return ErrEmptyTracking
	}
	if err := s.backend.AppendTracking(ctx, id, update); err != nil {
		s.logger.Warn("tracking append failed", zap.String("order_id", id), zap.Error(err))
		s.notifier.Error("Failed to update tracking")
		return fmt.Errorf("append tracking: %w", err)
	}
	s.notifier.Success("Tracking updated!")
	return nil
}

type Stats struct {
	Users    int `json:"users"`
	Orders   int `json:"orders"`
	Products int `json:"products"`
}

// Dashboard fetches users, orders and products concurrently and counts them.
// Any failure fails the whole dashboard.
func (s *Service) Dashboard(ctx context.Context) (Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.backend.AdminUsers(gctx)
		stats.Users = len(users)
		return err
	})
	g.Go(func() error {
		orders, err := s.backend.AdminOrders(gctx)
		stats.Orders = len(orders)
		return err
	})
	g.Go(func() error {
		products, err := s.backend.AdminProducts(gctx)
		stats.Products = len(products)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("dashboard load failed", zap.Error(err))
		s.notifier.Error("Failed to load admin stats")
		return Stats{}, fmt.Errorf("dashboard: %w", err)
	}
	return stats, nil
}
