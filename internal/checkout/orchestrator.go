package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/localstore"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	msgFillRequired       = "Please fill all required shipping fields."
	msgOrderPlaced        = "Order placed successfully"
	msgOrderFailed        = "Failed to place order"
	msgPaymentFailed      = "Payment failed. Try again."
	msgVerificationFailed = "Payment verification failed"
	msgPaymentInitFailed  = "Could not start payment"
	storeName             = "DreamDecor"
)

// Backend is the part of the REST API a checkout needs.
type Backend interface {
	CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.Order, error)
	CreatePaymentOrder(ctx context.Context, amount decimal.Decimal) (api.PaymentOrder, error)
	VerifyPayment(ctx context.Context, req api.VerifyPaymentRequest) (domain.Order, error)
}

type pendingPayment struct {
	handle    PaymentHandle
	payload   domain.OrderPayload
	verifying bool
}

// Result is the outcome of a submission step. Payment is set while an
// ONLINE checkout waits for the gateway.
type Result struct {
	State   domain.CheckoutState `json:"state"`
	OrderID string               `json:"orderId,omitempty"`
	Payment *PaymentHandle       `json:"payment,omitempty"`
}

// Orchestrator drives one checkout attempt from a frozen snapshot to a placed order.
type Orchestrator struct {
	mu sync.Mutex

	state    domain.CheckoutState
	snapshot domain.CheckoutSnapshot
	totals   domain.Totals
	book     []domain.ShippingAddress
	selected int
	draft    domain.ShippingAddress
	method   domain.PaymentMethod
	pending  *pendingPayment
	orderID  string
	lastErr  string

	sessionID string
	store     localstore.Store
	backend   Backend
	publisher events.Publisher
	notifier  notify.Notifier
	policy    domain.ShippingPolicy
	logger    *zap.Logger
}

type Deps struct {
	SessionID string
	Store     localstore.Store
	Backend   Backend
	Publisher events.Publisher
	Notifier  notify.Notifier
	Policy    domain.ShippingPolicy
	Logger    *zap.Logger
}

func New(d Deps) *Orchestrator {
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	return &Orchestrator{
		state:     domain.CheckoutLoading,
		selected:  -1,
		method:    domain.PaymentCOD,
		sessionID: d.SessionID,
		store:     d.Store,
		backend:   d.Backend,
		publisher: d.Publisher,
		notifier:  d.Notifier,
		policy:    d.Policy,
		logger:    d.Logger.With(zap.String("session_id", d.SessionID)),
	}
}

// Load reads the checkout snapshot and address book and moves to Ready.
// A missing, unreadable or empty snapshot returns ErrNoSnapshot and the
// orchestrator stays in Loading.
func (o *Orchestrator) Load(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != domain.CheckoutLoading {
		return nil
	}

	var snap domain.CheckoutSnapshot
	if !localstore.LoadJSON(ctx, o.store, localstore.KeyCheckoutCart, &snap, o.logger) || len(snap.Items) == 0 {
		return ErrNoSnapshot
	}

	o.snapshot = snap
	o.totals = o.policy.Totals(snap.Items)
	o.book = o.loadBook(ctx)
	if len(o.book) > 0 {
		o.selected = 0
		o.draft = o.book[0]
	}
	return o.transition(domain.CheckoutReady)
}

func (o *Orchestrator) SetPaymentMethod(m domain.PaymentMethod) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.editable(); err != nil {
		return err
	}
	if !m.Valid() {
		return ErrInvalidMethod
	}
	o.method = m
	return nil
}

// Submit validates the draft and places the order. COD creates the order
// directly. ONLINE only asks the backend for a gateway order and returns its
// handle; the order is created by PaymentSucceeded after the gateway pays.
func (o *Orchestrator) Submit(ctx context.Context) (Result, error) {
	o.mu.Lock()
	if o.state == domain.CheckoutSubmitting {
		o.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	}
	if err := o.editable(); err != nil {
		o.mu.Unlock()
		return Result{}, err
	}

	if field := o.draft.MissingField(); field != "" {
		if o.state == domain.CheckoutFailed {
			_ = o.transition(domain.CheckoutReady)
		}
		o.lastErr = msgFillRequired
		o.mu.Unlock()
		o.notifier.Error(msgFillRequired)
		return Result{State: domain.CheckoutReady}, &ValidationError{Field: field}
	}

	payload := domain.NewOrderPayload(o.snapshot, o.draft, o.method, o.totals)
	method := o.method
	if err := o.transition(domain.CheckoutSubmitting); err != nil {
		o.mu.Unlock()
		return Result{}, err
	}
	o.lastErr = ""
	o.mu.Unlock()

	if method == domain.PaymentOnline {
		return o.startPayment(ctx, payload)
	}

	order, err := o.backend.CreateOrder(ctx, payload)
	if err != nil {
		return o.fail(err, api.MessageOf(err, msgOrderFailed))
	}
	return o.complete(ctx, order, payload)
}

func (o *Orchestrator) startPayment(ctx context.Context, payload domain.OrderPayload) (Result, error) {
	po, err := o.backend.CreatePaymentOrder(ctx, payload.TotalPrice)
	if err != nil {
		return o.fail(err, api.MessageOf(err, msgPaymentInitFailed))
	}

	handle := PaymentHandle{
		GatewayOrderID: po.OrderID,
		Amount:         po.Amount,
		Key:            po.Key,
		Name:           storeName,
		Description:    "Online Payment",
		Prefill: Prefill{
			Name:    payload.ShippingAddress.FullName,
			Contact: payload.ShippingAddress.Phone,
		},
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = &pendingPayment{handle: handle, payload: payload}
	o.logger.Info("awaiting gateway payment", zap.String("gateway_order_id", po.OrderID))
	h := handle
	return Result{State: o.state, Payment: &h}, nil
}

// PaymentSucceeded verifies the gateway's success callback with the backend,
// which creates the order from the payload captured at Submit.
func (o *Orchestrator) PaymentSucceeded(ctx context.Context, resp GatewayResponse) (Result, error) {
	o.mu.Lock()
	p := o.pending
	if o.state != domain.CheckoutSubmitting || p == nil || p.verifying {
		o.mu.Unlock()
		return Result{}, ErrNoPendingPayment
	}
	if resp.OrderID != p.handle.GatewayOrderID {
		o.mu.Unlock()
		return Result{}, ErrPaymentMismatch
	}
	p.verifying = true
	payload := p.payload
	o.mu.Unlock()

	order, err := o.backend.VerifyPayment(ctx, api.VerifyPaymentRequest{
		PaymentID:    resp.PaymentID,
		OrderID:      resp.OrderID,
		Signature:    resp.Signature,
		OrderPayload: payload,
	})
	if err != nil {
		return o.fail(err, msgVerificationFailed)
	}
	return o.complete(ctx, order, payload)
}

// PaymentFailed handles a gateway failure or dismissal: no order is created,
// the snapshot is kept and the checkout returns to Ready.
func (o *Orchestrator) PaymentFailed(reason string, cancelled bool) error {
	o.mu.Lock()
	if o.state != domain.CheckoutSubmitting || o.pending == nil || o.pending.verifying {
		o.mu.Unlock()
		return ErrNoPendingPayment
	}
	o.pending = nil
	o.lastErr = msgPaymentFailed
	_ = o.transition(domain.CheckoutReady)
	o.mu.Unlock()

	o.logger.Info("gateway payment not completed", zap.String("reason", reason), zap.Bool("cancelled", cancelled))
	o.notifier.Error(msgPaymentFailed)
	if cancelled {
		return ErrPaymentCancelled
	}
	if reason != "" {
		return fmt.Errorf("%w: %s", ErrPaymentFailed, reason)
	}
	return ErrPaymentFailed
}

// Pay runs Submit and, for ONLINE checkouts, the whole gateway round trip
// against an in-process gateway.
func (o *Orchestrator) Pay(ctx context.Context, gateway PaymentGateway) (Result, error) {
	res, err := o.Submit(ctx)
	if err != nil || res.Payment == nil {
		return res, err
	}

	resp, err := gateway.Open(ctx, *res.Payment)
	if err != nil {
		perr := o.PaymentFailed(err.Error(), errors.Is(err, ErrPaymentCancelled))
		return Result{State: o.State()}, perr
	}
	return o.PaymentSucceeded(ctx, resp)
}

func (o *Orchestrator) fail(err error, msg string) (Result, error) {
	o.mu.Lock()
	o.pending = nil
	o.lastErr = msg
	_ = o.transition(domain.CheckoutFailed)
	o.mu.Unlock()

	o.logger.Warn("checkout submission failed", zap.Error(err))
	o.notifier.Error(msg)
	return Result{State: domain.CheckoutFailed}, fmt.Errorf("checkout: %w", err)
}

func (o *Orchestrator) complete(ctx context.Context, order domain.Order, payload domain.OrderPayload) (Result, error) {
	if err := o.store.Remove(ctx, localstore.KeyCheckoutCart); err != nil {
		o.logger.Error("failed to clear checkout snapshot", zap.Error(err))
	}

	o.mu.Lock()
	o.pending = nil
	o.orderID = order.ID
	_ = o.transition(domain.CheckoutSuccess)
	o.mu.Unlock()

	o.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("payment_method", string(payload.PaymentMethod)))
	o.notifier.Success(msgOrderPlaced)

	e := events.OrderPlaced(o.sessionID, order, payload.PaymentMethod, payload.TotalPrice)
	if err := o.publisher.Publish(ctx, e); err != nil {
		o.logger.Warn("failed to publish order event", zap.String("order_id", order.ID), zap.Error(err))
	}
	return Result{State: domain.CheckoutSuccess, OrderID: order.ID}, nil
}

// editable is true in Ready, and in Failed where the shopper may retry.
func (o *Orchestrator) editable() error {
	if o.state == domain.CheckoutReady || o.state == domain.CheckoutFailed {
		return nil
	}
	if o.state == domain.CheckoutSubmitting {
		return ErrSubmitInFlight
	}
	return ErrNotReady
}

func (o *Orchestrator) transition(to domain.CheckoutState) error {
	if !domain.CanTransitionTo(o.state, to) {
		return fmt.Errorf("%w: %s -> %s", IllegalTransitionError, o.state, to)
	}
	o.logger.Debug("checkout state", zap.Stringer("from", o.state), zap.Stringer("to", to))
	o.state = to
	return nil
}

func (o *Orchestrator) State() domain.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// View is a read-only copy of everything the checkout page renders.
type View struct {
	State         domain.CheckoutState     `json:"state"`
	Items         []domain.CartLineItem    `json:"items"`
	Totals        domain.Totals            `json:"totals"`
	AddressBook   []domain.ShippingAddress `json:"addressBook"`
	SelectedIndex int                      `json:"selectedIndex"`
	Draft         domain.ShippingAddress   `json:"draft"`
	PaymentMethod domain.PaymentMethod     `json:"paymentMethod"`
	OrderID       string                   `json:"orderId,omitempty"`
	Error         string                   `json:"error,omitempty"`
	Payment       *PaymentHandle           `json:"payment,omitempty"`
}

func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := View{
		State:         o.state,
		Items:         append([]domain.CartLineItem(nil), o.snapshot.Items...),
		Totals:        o.totals,
		AddressBook:   append([]domain.ShippingAddress(nil), o.book...),
		SelectedIndex: o.selected,
		Draft:         o.draft,
		PaymentMethod: o.method,
		OrderID:       o.orderID,
		Error:         o.lastErr,
	}
	if o.pending != nil {
		h := o.pending.handle
		v.Payment = &h
	}
	return v
}
