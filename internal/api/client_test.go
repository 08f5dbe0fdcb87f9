package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	domain.UsePlainJSONNumbers()
	os.Exit(m.Run())
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, BreakerFailures: 3}, zap.NewNop())
}

func TestCreateOrder_SendsBearerAndDecodesEnvelope(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order":{"_id":"o-1","status":"Ordered","totalPrice":548}}`))
	})

	ctx := WithToken(context.Background(), "tok-123")
	payload := domain.OrderPayload{
		Items:         []domain.CartLineItem{{ProductID: "p1", Name: "Lotus", UnitPrice: decimal.NewFromInt(499), Quantity: 1}},
		ItemsPrice:    decimal.NewFromInt(499),
		ShippingPrice: decimal.NewFromInt(49),
		TotalPrice:    decimal.NewFromInt(548),
		PaymentMethod: domain.PaymentCOD,
	}
	order, err := c.CreateOrder(ctx, payload)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "/api/orders", gotPath)
	assert.Equal(t, "COD", gotBody["paymentMethod"])
	assert.EqualValues(t, 548, gotBody["totalPrice"])
	assert.EqualValues(t, 0, gotBody["taxPrice"])
	assert.Equal(t, "o-1", order.ID)
}

func TestOrder_BareDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"_id":"o-2","status":"Packed"}`))
	})

	order, err := c.Order(context.Background(), "o-2")
	require.NoError(t, err)
	assert.Equal(t, "o-2", order.ID)
	assert.Equal(t, "Packed", order.Status)
}

func TestBackendError_CarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Order already shipped"}`))
	})

	_, err := c.RequestCancellation(context.Background(), "o-1", CancelRequest{ReasonOption: "Other"})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Order already shipped", MessageOf(err, "Cancel failed"))
}

func TestMessageOf_Fallback(t *testing.T) {
	assert.Equal(t, "Cancel failed", MessageOf(errors.New("dial tcp: refused"), "Cancel failed"))
	assert.Equal(t, "Cancel failed", MessageOf(&Error{StatusCode: 500}, "Cancel failed"))
}

func TestBreaker_OpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 3; i++ {
		_, err := c.Tracking(context.Background(), "o-1")
		require.Error(t, err)
	}
	_, err := c.Tracking(context.Background(), "o-1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestBreaker_IgnoresClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 5; i++ {
		_, err := c.Order(context.Background(), "missing")
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	}
	assert.Equal(t, int32(5), calls.Load())
}

func TestVerifyPayment_ForwardsPayload(t *testing.T) {
	var got VerifyPaymentRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/razorpay/verify", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"order":{"_id":"o-9"}}`))
	})

	payload := domain.OrderPayload{TotalPrice: decimal.NewFromInt(1200), PaymentMethod: domain.PaymentOnline}
	order, err := c.VerifyPayment(context.Background(), VerifyPaymentRequest{
		PaymentID: "pay_1", OrderID: "order_1", Signature: "sig", OrderPayload: payload,
	})
	require.NoError(t, err)
	assert.Equal(t, "o-9", order.ID)
	assert.Equal(t, "pay_1", got.PaymentID)
	assert.True(t, got.OrderPayload.TotalPrice.Equal(decimal.NewFromInt(1200)))
}

func TestPincodes_Query(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "Kerala", r.URL.Query().Get("state"))
		assert.False(t, r.URL.Query().Has("search"))
		_, _ = w.Write([]byte(`{"pincodes":[{"pincode":"682001","city":"Kochi","state":"Kerala","isServiceable":true}],"page":2,"pages":3,"limit":20,"total":41}`))
	})

	page, err := c.Pincodes(context.Background(), domain.PincodeQuery{Page: 2, State: "Kerala"})
	require.NoError(t, err)
	assert.Equal(t, 41, page.Total)
	require.Len(t, page.Pincodes, 1)
	assert.Equal(t, "Kochi", page.Pincodes[0].City)
}
