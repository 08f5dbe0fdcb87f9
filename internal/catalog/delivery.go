package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/localstore"
	"go.uber.org/zap"
)

const pincodeLength = 6

var ErrShortPincode = errors.New("pincode must have 6 digits")

type PincodeChecker interface {
	CheckPincode(ctx context.Context, pin string) (domain.PincodeCheck, error)
}

// Delivery answers "do you deliver here?" on product pages and remembers the
// shopper's last checked pincode.
type Delivery struct {
	checker PincodeChecker
	store   localstore.Store
	logger  *zap.Logger
}

func NewDelivery(checker PincodeChecker, store localstore.Store, logger *zap.Logger) *Delivery {
	return &Delivery{checker: checker, store: store, logger: logger}
}

// Check asks the backend about pin. A failed lookup is reported as not
// serviceable rather than as an error.
func (d *Delivery) Check(ctx context.Context, pin string) (domain.PincodeCheck, error) {
	pin = strings.TrimSpace(pin)
	if len(pin) < pincodeLength {
		return domain.PincodeCheck{}, ErrShortPincode
	}
	res, err := d.checker.CheckPincode(ctx, pin)
	if err != nil {
		d.logger.Warn("pincode check failed", zap.String("pincode", pin), zap.Error(err))
		return domain.PincodeCheck{Serviceable: false}, nil
	}
	if err := d.store.Set(ctx, localstore.KeyUserPincode, pin); err != nil {
		d.logger.Warn("failed to remember pincode", zap.Error(err))
	}
	return res, nil
}

// Saved returns the last pincode that was checked successfully.
func (d *Delivery) Saved(ctx context.Context) string {
	pin, err := d.store.Get(ctx, localstore.KeyUserPincode)
	if err != nil {
		return ""
	}
	return pin
}
