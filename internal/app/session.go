package app

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cancellation"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/localstore"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/tracking"
	"go.uber.org/zap"
)

const toastBacklog = 20

// Session is everything one shopper's browser would hold: storage, auth
// state, cart and the view-models of the pages they have open.
type Session struct {
	ID         string
	Store      localstore.Store
	Auth       *session.State
	Toasts     *notify.Recorder
	Notifier   notify.Notifier
	Cart       *cart.Cart
	Favourites *cart.Favourites
	Delivery   *catalog.Delivery
	Customer   *cancellation.Customer

	reg    *Registry
	logger *zap.Logger

	mu       sync.Mutex
	checkout *checkout.Orchestrator
	trackers map[string]*tracking.Tracker
	panels   map[string]*cancellation.Panel
	lastSeen time.Time
}

func newSession(ctx context.Context, id string, reg *Registry) *Session {
	store := localstore.Namespaced(reg.store, id)
	logger := reg.logger.With(zap.String("session_id", id))
	toasts := notify.NewRecorder(toastBacklog)
	notifier := notify.Multi(notify.NewLogger(logger), toasts)

	return &Session{
		ID:         id,
		Store:      store,
		Auth:       session.New(store, logger),
		Toasts:     toasts,
		Notifier:   notifier,
		Cart:       cart.New(ctx, store, notifier, reg.assetBase, logger),
		Favourites: cart.NewFavourites(store, logger),
		Delivery:   catalog.NewDelivery(reg.backend, store, logger),
		Customer:   cancellation.NewCustomer(reg.backend, notifier, logger),
		reg:        reg,
		logger:     logger,
		trackers:   make(map[string]*tracking.Tracker),
		panels:     make(map[string]*cancellation.Panel),
		lastSeen:   reg.now(),
	}
}

// Context attaches the session's bearer token for backend calls.
func (s *Session) Context(ctx context.Context) context.Context {
	return api.WithToken(ctx, s.Auth.Token(ctx))
}

// SetToken stores a new bearer token. A different token means a different
// shopper, so views opened under the old one are dropped.
func (s *Session) SetToken(ctx context.Context, token string) error {
	prev := s.Auth.Token(ctx)
	if err := s.Auth.SetToken(ctx, token); err != nil {
		return err
	}
	if prev != token {
		s.reset()
	}
	return nil
}

// Logout forgets the credentials and stops everything still acting on them.
func (s *Session) Logout(ctx context.Context) error {
	s.reset()
	return s.Auth.Logout(ctx)
}

// Checkout returns the open checkout, starting a fresh one when none exists
// or the previous one already placed its order.
func (s *Session) Checkout() *checkout.Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout == nil || s.checkout.State().IsTerminal() {
		s.checkout = checkout.New(checkout.Deps{
			SessionID: s.ID,
			Store:     s.Store,
			Backend:   s.reg.backend,
			Publisher: s.reg.publisher,
			Notifier:  s.Notifier,
			Policy:    s.reg.policy,
			Logger:    s.logger,
		})
	}
	return s.checkout
}

// ProceedToCheckout freezes the cart and discards any checkout opened for an
// earlier snapshot.
func (s *Session) ProceedToCheckout(ctx context.Context, contact cart.Contact) (domain.CheckoutSnapshot, error) {
	snap, err := s.Cart.ProceedToCheckout(ctx, contact, s.reg.policy)
	if err != nil {
		return domain.CheckoutSnapshot{}, err
	}
	s.mu.Lock()
	s.checkout = nil
	s.mu.Unlock()
	return snap, nil
}

// Tracker returns the running tracker for orderID, starting one if needed.
// It polls with the shopper's token until delivered or the session expires.
func (s *Session) Tracker(ctx context.Context, orderID string) (*tracking.Tracker, error) {
	s.mu.Lock()
	t, ok := s.trackers[orderID]
	if ok {
		s.mu.Unlock()
		return t, nil
	}
	t = tracking.New(s.reg.backend, orderID, s.reg.pollInterval, s.logger)
	s.trackers[orderID] = t
	s.mu.Unlock()

	pollCtx := api.WithToken(s.reg.ctx, s.Auth.Token(ctx))
	if err := t.Start(pollCtx); err != nil {
		return nil, err
	}
	return t, nil
}

// CloseTracker stops polling for orderID, as leaving the tracking page does.
func (s *Session) CloseTracker(orderID string) {
	s.mu.Lock()
	t, ok := s.trackers[orderID]
	delete(s.trackers, orderID)
	s.mu.Unlock()
	if ok {
		t.Stop()
	}
}

// Panel returns the admin cancellation panel for orderID, loading the order
// the first time it is opened.
func (s *Session) Panel(ctx context.Context, orderID string) (*cancellation.Panel, error) {
	s.mu.Lock()
	p, ok := s.panels[orderID]
	s.mu.Unlock()
	if ok {
		return p, nil
	}

	ctx = s.Context(ctx)
	order, err := s.reg.backend.AdminOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	token := s.Auth.Token(ctx)
	reload := func(ctx context.Context) (domain.Order, error) {
		return s.reg.backend.AdminOrder(api.WithToken(ctx, token), orderID)
	}
	p = cancellation.NewPanel(order, s.reg.backend, s.Notifier, reload, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.panels[orderID]; ok {
		return existing, nil
	}
	s.panels[orderID] = p
	return p, nil
}

// ClosePanel forgets the panel so the next open reloads the order. A panel
// with a decision in flight is kept; it reloads itself once the call ends.
func (s *Session) ClosePanel(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.panels[orderID]; ok && p.View().InFlight {
		return
	}
	delete(s.panels, orderID)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// reset stops every tracker and drops the admin panels. Both carry the
// token they were opened with.
func (s *Session) reset() {
	s.mu.Lock()
	trackers := s.trackers
	s.trackers = make(map[string]*tracking.Tracker)
	s.panels = make(map[string]*cancellation.Panel)
	s.mu.Unlock()
	for _, t := range trackers {
		t.Stop()
	}
}
