package admin

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockBackend struct {
	mu           sync.Mutex
	statusCalls  map[string]domain.Stage
	tracking     []api.TrackingUpdate
	bulk         []domain.PincodeBulkUpdate
	created      []domain.Pincode
	ticketUpdate []domain.TicketUpdate
	queries      []domain.PincodeQuery
	usersErr     error
	err          error
}

func newMockBackend() *mockBackend {
	return &mockBackend{statusCalls: map[string]domain.Stage{}}
}

func (m *mockBackend) AdminOrders(context.Context) ([]domain.Order, error) {
	return []domain.Order{{ID: "a"}, {ID: "b"}, {ID: "c"}}, m.err
}

func (m *mockBackend) UpdateOrderStatus(_ context.Context, id string, status domain.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls[id] = status
	return m.err
}

func (m *mockBackend) AppendTracking(_ context.Context, _ string, u api.TrackingUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracking = append(m.tracking, u)
	return m.err
}

func (m *mockBackend) AdminUsers(context.Context) ([]domain.AdminUser, error) {
	return []domain.AdminUser{{ID: "u1"}, {ID: "u2"}}, m.usersErr
}

func (m *mockBackend) AdminProducts(context.Context) ([]domain.Product, error) {
	return []domain.Product{{ID: "p1"}}, m.err
}

func (m *mockBackend) Pincodes(_ context.Context, q domain.PincodeQuery) (domain.PincodePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	return domain.PincodePage{Page: q.Page, Limit: q.Limit}, m.err
}

func (m *mockBackend) CreatePincode(_ context.Context, p domain.Pincode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, p)
	return m.err
}

func (m *mockBackend) BulkUpdatePincodes(_ context.Context, u domain.PincodeBulkUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulk = append(m.bulk, u)
	return m.err
}

func (m *mockBackend) UpdatePincode(context.Context, domain.Pincode) error { return m.err }

func (m *mockBackend) Tickets(context.Context) ([]domain.Ticket, error) {
	return []domain.Ticket{{ID: "t1"}}, m.err
}

func (m *mockBackend) UpdateTicket(_ context.Context, _ string, u domain.TicketUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketUpdate = append(m.ticketUpdate, u)
	return m.err
}

func TestUpdateStatus(t *testing.T) {
	backend := newMockBackend()
	toasts := notify.NewRecorder(10)
	sut := NewService(backend, toasts, zap.NewNop())

	require.NoError(t, sut.UpdateStatus(context.Background(), "o1", "Out for Delivery"))
	assert.Equal(t, domain.StageOutForDelivery, backend.statusCalls["o1"])

	err := sut.UpdateStatus(context.Background(), "o1", "Lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Len(t, backend.statusCalls, 1)

	backend.err = errors.New("down")
	require.Error(t, sut.UpdateStatus(context.Background(), "o2", "Packed"))
	got := toasts.Drain()
	assert.Equal(t, "Order status updated!", got[0].Message)
	assert.Equal(t, "Failed to update status", got[1].Message)
}

func TestAppendTracking(t *testing.T) {
	backend := newMockBackend()
	sut := NewService(backend, notify.Nop{}, zap.NewNop())

	assert.ErrorIs(t, sut.AppendTracking(context.Background(), "o1", api.TrackingUpdate{Status: "  "}), ErrEmptyTracking)
	require.NoError(t, sut.AppendTracking(context.Background(), "o1", api.TrackingUpdate{Status: " Reached hub ", Location: "Nagpur"}))
	require.Len(t, backend.tracking, 1)
	assert.Equal(t, "Reached hub", backend.tracking[0].Status)
}

func TestDashboard(t *testing.T) {
	backend := newMockBackend()
	toasts := notify.NewRecorder(10)
	sut := NewService(backend, toasts, zap.NewNop())

	stats, err := sut.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 2, Orders: 3, Products: 1}, stats)

	backend.usersErr = errors.New("forbidden")
	_, err = sut.Dashboard(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to load admin stats", toasts.Drain()[0].Message)
}

func TestPincodes(t *testing.T) {
	backend := newMockBackend()
	sut := NewService(backend, notify.Nop{}, zap.NewNop())
	ctx := context.Background()

	page, err := sut.Pincodes(ctx, domain.PincodeQuery{Search: "pune"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, backend.queries[0].Limit)

	assert.ErrorIs(t, sut.CreatePincode(ctx, domain.Pincode{}), ErrNoPincode)
	require.NoError(t, sut.CreatePincode(ctx, domain.Pincode{Pincode: " 411001", City: "Pune"}))
	assert.Equal(t, "411001", backend.created[0].Pincode)

	assert.ErrorIs(t, sut.BulkUpdatePincodes(ctx, domain.PincodeBulkUpdate{Action: domain.PincodeEnable}), ErrNoSelection)
	assert.ErrorIs(t, sut.BulkUpdatePincodes(ctx, domain.PincodeBulkUpdate{Action: "nuke", IDs: []string{"1"}}), ErrInvalidAction)
	assert.ErrorIs(t, sut.BulkUpdatePincodes(ctx, domain.PincodeBulkUpdate{Action: domain.PincodeSetDays, IDs: []string{"1"}}), ErrInvalidDays)
	require.NoError(t, sut.BulkUpdatePincodes(ctx, domain.PincodeBulkUpdate{Action: domain.PincodeSetDays, IDs: []string{"1"}, Days: 3}))
	assert.Len(t, backend.bulk, 1)
}

func TestCreatePincode_SurfacesBackendMessage(t *testing.T) {
	backend := newMockBackend()
	backend.err = &api.Error{StatusCode: 409, Message: "Pincode already exists"}
	toasts := notify.NewRecorder(10)
	sut := NewService(backend, toasts, zap.NewNop())

	require.Error(t, sut.CreatePincode(context.Background(), domain.Pincode{Pincode: "411001"}))
	assert.Equal(t, "Pincode already exists", toasts.Drain()[0].Message)
}

func TestUpdateTicket(t *testing.T) {
	backend := newMockBackend()
	sut := NewService(backend, notify.Nop{}, zap.NewNop())
	ctx := context.Background()

	assert.ErrorIs(t, sut.UpdateTicket(ctx, "t1", domain.TicketUpdate{}), ErrEmptyTicketUpdate)
	bad := domain.TicketStatus("Closed")
	assert.ErrorIs(t, sut.UpdateTicket(ctx, "t1", domain.TicketUpdate{Status: &bad}), ErrInvalidTicketStatus)

	status := domain.TicketResolved
	note := "called back"
	require.NoError(t, sut.UpdateTicket(ctx, "t1", domain.TicketUpdate{Status: &status, AdminNote: &note}))
	require.Len(t, backend.ticketUpdate, 1)
}

type creatorFunc func(ctx context.Context, t api.NewTicket) (string, error)

func (f creatorFunc) CreateTicket(ctx context.Context, t api.NewTicket) (string, error) {
	return f(ctx, t)
}

func TestSupportRaise(t *testing.T) {
	var got []api.NewTicket
	toasts := notify.NewRecorder(10)
	sut := NewSupport(creatorFunc(func(_ context.Context, tk api.NewTicket) (string, error) {
		got = append(got, tk)
		return "ok", nil
	}), toasts, zap.NewNop())

	err := sut.Raise(context.Background(), api.NewTicket{Name: "A", Email: "a@x.in", Message: "help"})
	assert.ErrorIs(t, err, ErrIncompleteTicket)
	assert.Empty(t, got)

	require.NoError(t, sut.Raise(context.Background(), api.NewTicket{Name: "A", Email: "a@x.in", WhatsApp: "98", Message: "help"}))
	assert.Len(t, got, 1)
	msgs := toasts.Drain()
	assert.Equal(t, "Please fill all fields", msgs[0].Message)
	assert.Equal(t, notify.LevelSuccess, msgs[1].Level)
}
