package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/localstore"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidProduct    = errors.New("product has no id")
	ErrIncompleteContact = errors.New("contact details incomplete")
)

const (
	msgAdded   = "Added to cart"
	msgRemoved = "Removed from cart"
)

// Totals is the cart's own view of money; shipping is decided at checkout.
type Totals struct {
	ItemsSubtotal decimal.Decimal `json:"itemsSubtotal"`
}

// Cart is one shopper's cart. Every mutation writes the whole line list back
// to local storage before it becomes visible.
type Cart struct {
	mu        sync.Mutex
	items     []domain.CartLineItem
	store     localstore.Store
	notifier  notify.Notifier
	assetBase string
	logger    *zap.Logger
	now       func() time.Time
}

// New hydrates a cart from store. Unreadable content yields an empty cart.
func New(ctx context.Context, store localstore.Store, notifier notify.Notifier, assetBase string, logger *zap.Logger) *Cart {
	c := &Cart{
		store:     store,
		notifier:  notifier,
		assetBase: assetBase,
		logger:    logger,
		now:       time.Now,
	}
	c.items = c.load(ctx)
	return c
}

func (c *Cart) load(ctx context.Context) []domain.CartLineItem {
	var items []domain.CartLineItem
	if !localstore.LoadJSON(ctx, c.store, localstore.KeyCart, &items, c.logger) {
		items = nil
		if !localstore.LoadJSON(ctx, c.store, localstore.KeyLegacyCart, &items, c.logger) {
			return []domain.CartLineItem{}
		}
		c.logger.Info("hydrated cart from legacy key", zap.Int("items", len(items)))
	}

	out := make([]domain.CartLineItem, 0, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Quantity < 1 {
			continue
		}
		out = append(out, it)
	}
	return out
}

// AddItem merges by product id: an existing line gains qty (and takes the new
// variant when one is given), otherwise a new line is prepended. Only a new
// line produces the confirmation toast.
func (c *Cart) AddItem(ctx context.Context, p domain.Product, variant *domain.Variant, qty int) error {
	if p.ID == "" {
		return ErrInvalidProduct
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := cloneItems(c.items)
	if i := indexOf(next, p.ID); i >= 0 {
		next[i].Quantity += qty
		if variant != nil {
			v := *variant
			next[i].SelectedVariant = &v
		}
		return c.commit(ctx, next)
	}

	line := domain.CartLineItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  qty,
		ImageURL:  domain.ResolveImageURL(p.PrimaryImage(), c.assetBase),
	}
	if variant != nil {
		v := *variant
		line.SelectedVariant = &v
	}
	next = append([]domain.CartLineItem{line}, next...)
	if err := c.commit(ctx, next); err != nil {
		return err
	}
	c.notifier.Success(msgAdded)
	return nil
}

// RemoveItem drops the line whatever its quantity. Unknown ids are a no-op.
func (c *Cart) RemoveItem(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remove(ctx, productID)
}

func (c *Cart) remove(ctx context.Context, productID string) error {
	i := indexOf(c.items, productID)
	if i < 0 {
		return nil
	}
	next := cloneItems(c.items)
	next = append(next[:i], next[i+1:]...)
	if err := c.commit(ctx, next); err != nil {
		return err
	}
	c.notifier.Success(msgRemoved)
	return nil
}

// SetQuantity replaces a line's quantity; qty <= 0 removes the line.
func (c *Cart) SetQuantity(ctx context.Context, productID string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if qty <= 0 {
		return c.remove(ctx, productID)
	}
	i := indexOf(c.items, productID)
	if i < 0 {
		return nil
	}
	next := cloneItems(c.items)
	next[i].Quantity = qty
	return c.commit(ctx, next)
}

func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commit(ctx, []domain.CartLineItem{})
}

// Reload replaces the in-memory lines with what storage currently holds,
// picking up writes made by another process.
func (c *Cart) Reload(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = c.load(ctx)
}

// Items returns a copy of the lines, newest first.
func (c *Cart) Items() []domain.CartLineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneItems(c.items)
}

func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Totals{ItemsSubtotal: domain.Subtotal(c.items)}
}

// Contact is the minimal address the cart page collects before checkout.
type Contact struct {
	Name       string `json:"name"`
	Mobile     string `json:"mobile"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"pincode,omitempty"`
}

// ProceedToCheckout freezes the current lines, contact and totals into the
// checkout snapshot. Later cart edits do not touch the snapshot.
func (c *Cart) ProceedToCheckout(ctx context.Context, contact Contact, policy domain.ShippingPolicy) (domain.CheckoutSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) == 0 {
		return domain.CheckoutSnapshot{}, ErrEmptyCart
	}
	switch {
	case contact.Name == "":
		return domain.CheckoutSnapshot{}, fmt.Errorf("%w: name", ErrIncompleteContact)
	case contact.Mobile == "":
		return domain.CheckoutSnapshot{}, fmt.Errorf("%w: mobile", ErrIncompleteContact)
	case contact.City == "":
		return domain.CheckoutSnapshot{}, fmt.Errorf("%w: city", ErrIncompleteContact)
	}

	items := cloneItems(c.items)
	snap := domain.CheckoutSnapshot{
		Items: items,
		Address: domain.ShippingAddress{
			FullName:   contact.Name,
			Phone:      contact.Mobile,
			Address1:   contact.Address,
			City:       contact.City,
			State:      contact.State,
			PostalCode: contact.PostalCode,
		},
		Totals:     policy.Totals(items),
		CapturedAt: c.now(),
	}
	if err := localstore.SaveJSON(ctx, c.store, localstore.KeyCheckoutCart, snap); err != nil {
		return domain.CheckoutSnapshot{}, err
	}
	return snap, nil
}

func (c *Cart) commit(ctx context.Context, next []domain.CartLineItem) error {
	if err := localstore.SaveJSON(ctx, c.store, localstore.KeyCart, next); err != nil {
		c.logger.Error("failed to persist cart", zap.Error(err))
		return err
	}
	c.items = next
	return nil
}

func indexOf(items []domain.CartLineItem, productID string) int {
	for i, it := range items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func cloneItems(items []domain.CartLineItem) []domain.CartLineItem {
	out := make([]domain.CartLineItem, len(items))
	for i, it := range items {
		if it.SelectedVariant != nil {
			v := *it.SelectedVariant
			it.SelectedVariant = &v
		}
		out[i] = it
	}
	return out
}
