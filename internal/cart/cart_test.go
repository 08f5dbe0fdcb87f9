package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/localstore"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const assetBase = "http://localhost:5001"

func product(id string, price int64) domain.Product {
	return domain.Product{
		ID:     id,
		Name:   "Art " + id,
		Price:  decimal.NewFromInt(price),
		Images: []string{"/uploads/" + id + ".jpg"},
	}
}

func newCart(t *testing.T, store localstore.Store) (*Cart, *notify.Recorder) {
	t.Helper()
	rec := notify.NewRecorder(100)
	return New(context.Background(), store, rec, assetBase, zap.NewNop()), rec
}

type failingStore struct {
	localstore.Store
	m   sync.Mutex
	err error
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return f.err
	}
	return f.Store.Set(ctx, key, value)
}

func TestAddItem_MergesByProductID(t *testing.T) {
	ctx := context.Background()
	sut, rec := newCart(t, localstore.NewMemoryStore())

	require.NoError(t, sut.AddItem(ctx, product("p1", 100), nil, 2))
	require.NoError(t, sut.AddItem(ctx, product("p1", 100), nil, 3))

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)

	toasts := rec.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Added to cart", toasts[0].Message)
}

func TestAddItem_PrependsAndResolvesImage(t *testing.T) {
	ctx := context.Background()
	sut, _ := newCart(t, localstore.NewMemoryStore())

	require.NoError(t, sut.AddItem(ctx, product("p1", 100), nil, 1))
	remote := product("p2", 200)
	remote.Images = []string{"https://cdn.example.com/p2.jpg"}
	require.NoError(t, sut.AddItem(ctx, remote, nil, 1))

	items := sut.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p2", items[0].ProductID)
	assert.Equal(t, "https://cdn.example.com/p2.jpg", items[0].ImageURL)
	assert.Equal(t, "http://localhost:5001/uploads/p1.jpg", items[1].ImageURL)
}

func TestAddItem_VariantOverwritesOnRepeat(t *testing.T) {
	ctx := context.Background()
	sut, _ := newCart(t, localstore.NewMemoryStore())

	require.NoError(t, sut.AddItem(ctx, product("p1", 100), &domain.Variant{Label: "A4"}, 1))
	require.NoError(t, sut.AddItem(ctx, product("p1", 100), &domain.Variant{Label: "A2"}, 1))
	require.NoError(t, sut.AddItem(ctx, product("p1", 100), nil, 1))

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "A2", items[0].SelectedVariant.Label)
}

func TestAddItem_Invalid(t *testing.T) {
	sut, _ := newCart(t, localstore.NewMemoryStore())
	assert.ErrorIs(t, sut.AddItem(context.Background(), product("p1", 1), nil, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, sut.AddItem(context.Background(), domain.Product{}, nil, 1), ErrInvalidProduct)
}

func TestSetQuantityZero_EqualsRemove(t *testing.T) {
	ctx := context.Background()
	a, recA := newCart(t, localstore.NewMemoryStore())
	b, recB := newCart(t, localstore.NewMemoryStore())
	for _, c := range []*Cart{a, b} {
		require.NoError(t, c.AddItem(ctx, product("p1", 100), nil, 2))
		require.NoError(t, c.AddItem(ctx, product("p2", 50), nil, 1))
	}
	recA.Drain()
	recB.Drain()

	require.NoError(t, a.SetQuantity(ctx, "p1", 0))
	require.NoError(t, b.RemoveItem(ctx, "p1"))

	assert.Equal(t, a.Items(), b.Items())
	assert.Equal(t, recA.Drain()[0].Message, recB.Drain()[0].Message)
}

func TestSetQuantity_Replaces(t *testing.T) {
	ctx := context.Background()
	sut, _ := newCart(t, localstore.NewMemoryStore())
	require.NoError(t, sut.AddItem(ctx, product("p1", 120), nil, 2))
	require.NoError(t, sut.SetQuantity(ctx, "p1", 7))

	assert.Equal(t, 7, sut.Items()[0].Quantity)
	assert.Equal(t, "840", sut.Totals().ItemsSubtotal.String())
}

func TestEveryMutationPersists(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemoryStore()
	sut, _ := newCart(t, store)

	require.NoError(t, sut.AddItem(ctx, product("p1", 100), nil, 1))
	require.NoError(t, sut.AddItem(ctx, product("p2", 100), nil, 1))
	require.NoError(t, sut.RemoveItem(ctx, "p1"))

	reloaded, _ := newCart(t, store)
	assert.Equal(t, sut.Items(), reloaded.Items())

	require.NoError(t, sut.Clear(ctx))
	reloaded.Reload(ctx)
	assert.Empty(t, reloaded.Items())
}

func TestPersistFailure_LeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: localstore.NewMemoryStore()}
	sut, rec := newCart(t, store)
	require.NoError(t, sut.AddItem(ctx, product("p1", 100), nil, 1))
	rec.Drain()

	store.err = errors.New("disk full")
	assert.Error(t, sut.AddItem(ctx, product("p2", 100), nil, 1))
	assert.Len(t, sut.Items(), 1)
	assert.Empty(t, rec.Drain())
}

func TestHydrate_MalformedAndLegacy(t *testing.T) {
	ctx := context.Background()

	broken := localstore.NewMemoryStore()
	require.NoError(t, broken.Set(ctx, localstore.KeyCart, "{oops"))
	sut, _ := newCart(t, broken)
	assert.Empty(t, sut.Items())

	legacy := localstore.NewMemoryStore()
	require.NoError(t, legacy.Set(ctx, localstore.KeyLegacyCart, `[{"_id":"old","name":"Old","price":10,"qty":2}]`))
	sut, _ = newCart(t, legacy)
	require.Len(t, sut.Items(), 1)
	assert.Equal(t, "old", sut.Items()[0].ProductID)
	assert.Equal(t, "20", sut.Totals().ItemsSubtotal.String())
}

func TestHydrate_DropsInvalidLines(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, localstore.KeyCart,
		`[{"_id":"p1","name":"A","price":10,"qty":-2},{"_id":"","name":"C","price":10,"qty":1},{"_id":"p4","name":"D","price":10,"qty":3}]`))

	sut, _ := newCart(t, store)
	require.Len(t, sut.Items(), 1)
	assert.Equal(t, "p4", sut.Items()[0].ProductID)
	assert.Equal(t, "30", sut.Totals().ItemsSubtotal.String())
}

func TestProceedToCheckout(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemoryStore()
	sut, _ := newCart(t, store)
	sut.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	policy := domain.DefaultShippingPolicy()

	_, err := sut.ProceedToCheckout(ctx, Contact{Name: "A", Mobile: "1", City: "Pune"}, policy)
	assert.ErrorIs(t, err, ErrEmptyCart)

	require.NoError(t, sut.AddItem(ctx, product("p1", 998), nil, 1))
	_, err = sut.ProceedToCheckout(ctx, Contact{Name: "A", City: "Pune"}, policy)
	assert.ErrorIs(t, err, ErrIncompleteContact)

	snap, err := sut.ProceedToCheckout(ctx, Contact{Name: "A", Mobile: "1", City: "Pune"}, policy)
	require.NoError(t, err)
	assert.Equal(t, "49", snap.Totals.Shipping.String())
	assert.Equal(t, "1047", snap.Totals.Total.String())

	require.NoError(t, sut.AddItem(ctx, product("p2", 5), nil, 1))

	var stored domain.CheckoutSnapshot
	require.True(t, localstore.LoadJSON(ctx, store, localstore.KeyCheckoutCart, &stored, zap.NewNop()))
	assert.Len(t, stored.Items, 1)
	assert.Equal(t, "A", stored.Address.FullName)
}

func TestFavourites_Toggle(t *testing.T) {
	ctx := context.Background()
	sut := NewFavourites(localstore.NewMemoryStore(), zap.NewNop())

	added, err := sut.Toggle(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, added)
	_, err = sut.Toggle(ctx, "p2")
	require.NoError(t, err)
	assert.True(t, sut.IsFavourite(ctx, "p1"))

	added, err = sut.Toggle(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"p2"}, sut.List(ctx))
}
