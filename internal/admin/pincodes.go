package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	ErrNoPincode     = errors.New("pincode is required")
	ErrNoSelection   = errors.New("select at least one pincode")
	ErrInvalidAction = errors.New("unknown bulk action")
	ErrInvalidDays   = errors.New("delivery days must be positive")
)

const defaultPincodePageSize = 20

var bulkActions = map[string]bool{
	domain.PincodeEnable:     true,
	domain.PincodeDisable:    true,
	domain.PincodeEnableCOD:  true,
	domain.PincodeDisableCOD: true,
	domain.PincodeSetDays:    true,
}

func (s *Service) Pincodes(ctx context.Context, q domain.PincodeQuery) (domain.PincodePage, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultPincodePageSize
	}
	page, err := s.backend.Pincodes(ctx, q)
	if err != nil {
		s.notifier.Error("Failed to load pincodes")
		return domain.PincodePage{}, fmt.Errorf("list pincodes: %w", err)
	}
	return page, nil
}

func (s *Service) CreatePincode(ctx context.Context, p domain.Pincode) error {
	p.Pincode = strings.TrimSpace(p.Pincode)
	if p.Pincode == "" {
		s.notifier.Error("Add pincode")
		return ErrNoPincode
	}
	if err := s.backend.CreatePincode(ctx, p); err != nil {
		s.notifier.Error(api.MessageOf(err, "Create failed"))
		return fmt.Errorf("create pincode: %w", err)
	}
	s.notifier.Success("Pincode created")
	return nil
}

func (s *Service) BulkUpdatePincodes(ctx context.Context, u domain.PincodeBulkUpdate) error {
	if len(u.IDs) == 0 {
		s.notifier.Error("Select at least one pincode")
		return ErrNoSelection
	}
	if !bulkActions[u.Action] {
		return fmt.Errorf("%w: %q", ErrInvalidAction, u.Action)
	}
	if u.Action == domain.PincodeSetDays && u.Days <= 0 {
		return ErrInvalidDays
	}
	if err := s.backend.BulkUpdatePincodes(ctx, u); err != nil {
		s.notifier.Error("Bulk update failed")
		return fmt.Errorf("bulk update pincodes: %w", err)
	}
	s.notifier.Success("Bulk update applied")
	return nil
}

func (s *Service) UpdatePincode(ctx context.Context, p domain.Pincode) error {
	if strings.TrimSpace(p.Pincode) == "" {
		return ErrNoPincode
	}
	if err := s.backend.UpdatePincode(ctx, p); err != nil {
		s.notifier.Error("Update failed")
		return fmt.Errorf("update pincode %s: %w", p.Pincode, err)
	}
	s.notifier.Success("Saved")
	return nil
}
