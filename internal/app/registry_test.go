package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/localstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	mu             sync.Mutex
	trackingCalls  int
	trackingStatus string
	block          chan struct{}
	entered        chan struct{}
}

func (f *fakeBackend) CreateOrder(ctx context.Context, _ domain.OrderPayload) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.Order{ID: "order-1", Status: "Ordered"}, nil
}

func (f *fakeBackend) CreatePaymentOrder(_ context.Context, amount decimal.Decimal) (api.PaymentOrder, error) {
	return api.PaymentOrder{OrderID: "rzp_1", Amount: amount}, nil
}

func (f *fakeBackend) VerifyPayment(context.Context, api.VerifyPaymentRequest) (domain.Order, error) {
	return domain.Order{ID: "order-2"}, nil
}

func (f *fakeBackend) Tracking(context.Context, string) (domain.Tracking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trackingCalls++
	return domain.Tracking{Status: f.trackingStatus}, nil
}

func (f *fakeBackend) RequestCancellation(context.Context, string, api.CancelRequest) (string, error) {
	return "", nil
}

func (f *fakeBackend) HandleCancellation(context.Context, string, api.CancelDecision) (string, error) {
	if f.block != nil {
		f.entered <- struct{}{}
		<-f.block
	}
	return "", nil
}

func (f *fakeBackend) CheckPincode(context.Context, string) (domain.PincodeCheck, error) {
	return domain.PincodeCheck{Serviceable: true}, nil
}

func (f *fakeBackend) AdminOrder(_ context.Context, id string) (domain.Order, error) {
	return domain.Order{ID: id, Status: "Packed", Cancellation: &domain.CancellationRequest{Requested: true}}, nil
}

func newRegistry(t *testing.T, backend *fakeBackend, publisher events.Publisher) (*Registry, *localstore.MemoryStore) {
	t.Helper()
	store := localstore.NewMemoryStore()
	r := NewRegistry(Config{
		Store:        store,
		Backend:      backend,
		Publisher:    publisher,
		Policy:       domain.DefaultShippingPolicy(),
		AssetBase:    "https://cdn.example.com",
		PollInterval: time.Hour,
		Logger:       zap.NewNop(),
	})
	t.Cleanup(r.Close)
	return r, store
}

var painting = domain.Product{ID: "p1", Name: "Lotus", Price: decimal.NewFromInt(1200), Images: []string{"/img/lotus.jpg"}}

func TestSession_RejectsMalformedID(t *testing.T) {
	r, _ := newRegistry(t, &fakeBackend{}, nil)
	_, err := r.Session(context.Background(), "../../etc")
	assert.ErrorIs(t, err, ErrInvalidSessionID)
}

func TestSession_IsolatedPerID(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t, &fakeBackend{}, nil)
	a, b := NewSessionID(), NewSessionID()

	sa, err := r.Session(ctx, a)
	require.NoError(t, err)
	again, err := r.Session(ctx, a)
	require.NoError(t, err)
	assert.Same(t, sa, again)

	require.NoError(t, sa.Cart.AddItem(ctx, painting, nil, 1))
	sb, err := r.Session(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, sb.Cart.Items())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, "https://cdn.example.com/img/lotus.jpg", sa.Cart.Items()[0].ImageURL)
}

func TestCODOrder_ClearsCartAndPublishes(t *testing.T) {
	ctx := context.Background()
	var published []events.Event
	r, _ := newRegistry(t, &fakeBackend{}, events.PublisherFunc(func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	}))
	s, err := r.Session(ctx, NewSessionID())
	require.NoError(t, err)

	require.NoError(t, s.Cart.AddItem(ctx, painting, nil, 1))
	_, err = s.ProceedToCheckout(ctx, cart.Contact{Name: "Asha", Mobile: "98", City: "Pune"})
	require.NoError(t, err)

	co := s.Checkout()
	require.NoError(t, co.Load(ctx))
	require.NoError(t, co.UpdateDraft(ctx, domain.FieldAddress1, "12 MG Road"))
	require.NoError(t, co.UpdateDraft(ctx, domain.FieldFullName, "Asha"))
	require.NoError(t, co.UpdateDraft(ctx, domain.FieldPhone, "98"))
	require.NoError(t, co.UpdateDraft(ctx, domain.FieldCity, "Pune"))
	require.NoError(t, co.UpdateDraft(ctx, domain.FieldPostalCode, "411001"))

	res, err := co.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutSuccess, res.State)
	assert.Empty(t, s.Cart.Items())
	require.Len(t, published, 1)
	assert.Equal(t, s.ID, published[0].SessionID)

	assert.NotSame(t, co, s.Checkout())
}

func TestProceedToCheckout_ResetsOpenCheckout(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t, &fakeBackend{}, nil)
	s, err := r.Session(ctx, NewSessionID())
	require.NoError(t, err)
	require.NoError(t, s.Cart.AddItem(ctx, painting, nil, 1))

	first := s.Checkout()
	assert.Same(t, first, s.Checkout())
	_, err = s.ProceedToCheckout(ctx, cart.Contact{Name: "A", Mobile: "9", City: "Goa"})
	require.NoError(t, err)
	assert.NotSame(t, first, s.Checkout())
}

func TestClearCart_SessionNotLive(t *testing.T) {
	ctx := context.Background()
	r, store := newRegistry(t, &fakeBackend{}, nil)
	id := NewSessionID()
	ns := localstore.Namespaced(store, id)
	require.NoError(t, localstore.SaveJSON(ctx, ns, localstore.KeyCart, []domain.CartLineItem{{ProductID: "p1", Quantity: 2}}))

	require.NoError(t, r.ClearCart(ctx, id))
	s, err := r.Session(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, s.Cart.Items())
}

func TestEvictIdle_StopsTrackersAndKeepsStoredState(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{trackingStatus: "Shipped"}
	r, _ := newRegistry(t, backend, nil)
	now := time.Now()
	r.now = func() time.Time { return now }

	id := NewSessionID()
	s, err := r.Session(ctx, id)
	require.NoError(t, err)
	require.NoError(t, s.Cart.AddItem(ctx, painting, nil, 2))
	tr, err := s.Tracker(ctx, "order-1")
	require.NoError(t, err)
	same, err := s.Tracker(ctx, "order-1")
	require.NoError(t, err)
	assert.Same(t, tr, same)

	now = now.Add(2 * DefaultIdleTTL)
	r.evictIdle()
	assert.Zero(t, r.Len())
	select {
	case <-tr.Done():
	case <-time.After(time.Second):
		t.Fatal("tracker still running after eviction")
	}

	back, err := r.Session(ctx, id)
	require.NoError(t, err)
	assert.NotSame(t, s, back)
	require.Len(t, back.Cart.Items(), 1)
	assert.Equal(t, 2, back.Cart.Items()[0].Quantity)
}

func TestPanel_LoadedOncePerOrder(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t, &fakeBackend{}, nil)
	s, err := r.Session(ctx, NewSessionID())
	require.NoError(t, err)

	p, err := s.Panel(ctx, "o7")
	require.NoError(t, err)
	again, err := s.Panel(ctx, "o7")
	require.NoError(t, err)
	assert.Same(t, p, again)
	assert.True(t, p.View().Actionable)

	s.ClosePanel("o7")
	fresh, err := s.Panel(ctx, "o7")
	require.NoError(t, err)
	assert.NotSame(t, p, fresh)
}

func TestClosePanel_KeepsPanelWithDecisionInFlight(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	r, _ := newRegistry(t, backend, nil)
	s, err := r.Session(ctx, NewSessionID())
	require.NoError(t, err)

	p, err := s.Panel(ctx, "o7")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() {
		_, err := p.Approve(ctx)
		done <- err
	}()
	<-backend.entered

	s.ClosePanel("o7")
	again, err := s.Panel(ctx, "o7")
	require.NoError(t, err)
	assert.Same(t, p, again)

	close(backend.block)
	require.NoError(t, <-done)
	s.ClosePanel("o7")
	fresh, err := s.Panel(ctx, "o7")
	require.NoError(t, err)
	assert.NotSame(t, p, fresh)
}

func TestSetToken_DropsViewsOfPreviousShopper(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{trackingStatus: "Shipped"}
	r, _ := newRegistry(t, backend, nil)
	s, err := r.Session(ctx, NewSessionID())
	require.NoError(t, err)

	require.NoError(t, s.SetToken(ctx, "token-a"))
	tr, err := s.Tracker(ctx, "order-1")
	require.NoError(t, err)
	p, err := s.Panel(ctx, "o7")
	require.NoError(t, err)

	// same token again keeps everything
	require.NoError(t, s.SetToken(ctx, "token-a"))
	same, err := s.Tracker(ctx, "order-1")
	require.NoError(t, err)
	assert.Same(t, tr, same)

	require.NoError(t, s.SetToken(ctx, "token-b"))
	select {
	case <-tr.Done():
	case <-time.After(time.Second):
		t.Fatal("tracker still polling with the previous token")
	}
	next, err := s.Tracker(ctx, "order-1")
	require.NoError(t, err)
	assert.NotSame(t, tr, next)
	fresh, err := s.Panel(ctx, "o7")
	require.NoError(t, err)
	assert.NotSame(t, p, fresh)
}
