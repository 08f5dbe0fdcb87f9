package cancellation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"go.uber.org/zap"
)

const (
	msgRequestFailed   = "Cancel failed"
	msgRequested       = "Cancellation requested"
	msgApproveFailed   = "Failed to approve cancellation"
	msgRejectFailed    = "Failed to reject cancellation"
	msgApproved        = "Cancellation approved"
	msgRejected        = "Cancellation rejected"
	ReasonOther        = "Other"
	defaultCallTimeout = 15 * time.Second
)

// Reasons is the fixed list a customer picks a cancellation reason from.
var Reasons = []string{
	"Changed my mind",
	"Found cheaper elsewhere",
	"Ordered by mistake",
	"Delivery too slow",
	ReasonOther,
}

var (
	ErrNotCancellable = errors.New("order can no longer be cancelled")
	ErrUnknownReason  = errors.New("unknown cancellation reason")
	ErrNotPending     = errors.New("no pending cancellation request")
	ErrInFlight       = errors.New("cancellation decision already in progress")
)

// CanCancel reports whether a customer may ask to cancel an order in status.
func CanCancel(status string) bool {
	s, ok := domain.ParseStage(status)
	return ok && s.Cancellable()
}

func ValidReason(reason string) bool {
	return slices.Contains(Reasons, reason)
}

type Backend interface {
	RequestCancellation(ctx context.Context, orderID string, req api.CancelRequest) (string, error)
	HandleCancellation(ctx context.Context, orderID string, decision api.CancelDecision) (string, error)
}

// Reload refetches the order after a successful cancellation call. The
// workflow never patches the order locally.
type Reload func(ctx context.Context) error

// Customer files cancellation requests on behalf of a shopper.
type Customer struct {
	backend  Backend
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewCustomer(backend Backend, notifier notify.Notifier, logger *zap.Logger) *Customer {
	return &Customer{backend: backend, notifier: notifier, logger: logger}
}

// Request asks the backend to cancel order. Eligibility is checked again here
// even when the caller already hid the action. On success the backend's
// acknowledgement is returned and reload is invoked.
func (c *Customer) Request(ctx context.Context, order domain.Order, reason, message string, reload Reload) (string, error) {
	if !CanCancel(order.Status) {
		return "", ErrNotCancellable
	}
	if !ValidReason(reason) {
		return "", ErrUnknownReason
	}

	msg, err := c.backend.RequestCancellation(ctx, order.ID, api.CancelRequest{
		ReasonOption: reason,
		Message:      message,
	})
	if err != nil {
		text := api.MessageOf(err, msgRequestFailed)
		c.logger.Warn("cancellation request failed", zap.String("order_id", order.ID), zap.Error(err))
		c.notifier.Error(text)
		return "", fmt.Errorf("%s: %w", text, err)
	}
	if msg == "" {
		msg = msgRequested
	}
	c.logger.Info("cancellation requested", zap.String("order_id", order.ID), zap.String("reason", reason))
	c.notifier.Success(msg)

	if reload != nil {
		if err := reload(ctx); err != nil {
			c.logger.Warn("order reload after cancellation failed", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	return msg, nil
}

// Panel is the admin approve/reject control of one order-detail view. At
// most one decision call is in flight per Panel.
type Panel struct {
	orderID  string
	backend  Backend
	notifier notify.Notifier
	logger   *zap.Logger
	reload   Reload

	mu        sync.Mutex
	order     domain.Order
	refundNow bool
	inFlight  bool
	// decided is set once the backend accepted a decision, so a failed
	// reload cannot reopen the request.
	decided bool
}

func NewPanel(order domain.Order, backend Backend, notifier notify.Notifier, reload func(ctx context.Context) (domain.Order, error), logger *zap.Logger) *Panel {
	p := &Panel{
		orderID:  order.ID,
		order:    order,
		backend:  backend,
		notifier: notifier,
		logger:   logger.With(zap.String("order_id", order.ID)),
	}
	p.reload = func(ctx context.Context) error {
		if reload == nil {
			return nil
		}
		o, err := reload(ctx)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.order = o
		p.mu.Unlock()
		return nil
	}
	return p
}

// SetRefundNow toggles the refund flag sent with Approve.
func (p *Panel) SetRefundNow(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refundNow = v
}

func (p *Panel) Approve(ctx context.Context) (string, error) {
	p.mu.Lock()
	refund := p.refundNow
	p.mu.Unlock()
	return p.decide(ctx, api.CancelDecision{Action: api.ActionApprove, RefundNow: &refund}, msgApproved, msgApproveFailed)
}

func (p *Panel) Reject(ctx context.Context) (string, error) {
	return p.decide(ctx, api.CancelDecision{Action: api.ActionReject}, msgRejected, msgRejectFailed)
}

func (p *Panel) decide(ctx context.Context, d api.CancelDecision, okMsg, failMsg string) (string, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return "", ErrInFlight
	}
	if p.decided || !p.order.Cancellation.Pending() {
		p.mu.Unlock()
		return "", ErrNotPending
	}
	p.inFlight = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	msg, err := p.backend.HandleCancellation(ctx, p.orderID, d)
	if err != nil {
		text := api.MessageOf(err, failMsg)
		p.logger.Warn("cancellation decision failed", zap.String("action", d.Action), zap.Error(err))
		p.notifier.Error(text)
		return "", fmt.Errorf("%s: %w", text, err)
	}
	if msg == "" {
		msg = okMsg
	}
	p.logger.Info("cancellation decided", zap.String("action", d.Action))
	p.notifier.Success(msg)

	p.mu.Lock()
	p.decided = true
	if d.Action == api.ActionApprove {
		p.refundNow = false
	}
	p.mu.Unlock()
	if err := p.reload(ctx); err != nil {
		p.logger.Warn("order reload after decision failed", zap.Error(err))
	}
	return msg, nil
}

// PanelView is what the admin order-detail page renders for cancellation.
// Actionable is false once the request is processed.
type PanelView struct {
	Requested       bool                      `json:"requested"`
	Actionable      bool                      `json:"actionable"`
	InFlight        bool                      `json:"inFlight"`
	RefundNow       bool                      `json:"refundNow"`
	RefundOffered   bool                      `json:"refundOffered"`
	Reason          string                    `json:"reason,omitempty"`
	Message         string                    `json:"message,omitempty"`
	Result          domain.CancellationResult `json:"result,omitempty"`
	RefundInitiated bool                      `json:"refundInitiated"`
	ProcessedAt     *time.Time                `json:"processedAt,omitempty"`
}

func (p *Panel) View() PanelView {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.order.Cancellation
	if c == nil {
		return PanelView{}
	}
	v := PanelView{
		Requested:     c.Requested,
		Actionable:    c.Pending() && !p.decided,
		InFlight:      p.inFlight,
		RefundNow:     p.refundNow,
		RefundOffered: p.order.PaymentMethod == domain.PaymentOnline,
		Reason:        c.ReasonFromDropdown,
		Message:       c.Message,
	}
	if c.Processed {
		v.Result = c.Result
		v.RefundInitiated = c.RefundInitiated
		v.ProcessedAt = c.ProcessedAt
	}
	return v
}

func (p *Panel) Order() domain.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order
}
