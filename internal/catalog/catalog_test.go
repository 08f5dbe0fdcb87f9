package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (m *mockFetcher) Product(_ context.Context, id string) (domain.Product, error) {
	m.calls.Add(1)
	if m.release != nil {
		<-m.release
	}
	if m.err != nil {
		return domain.Product{}, m.err
	}
	return domain.Product{ID: id, Name: "Lotus", Price: decimal.NewFromInt(450)}, nil
}

func (m *mockFetcher) Products(context.Context) ([]domain.Product, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Product{{ID: "p1"}, {ID: "p2"}}, nil
}

func TestProduct_CachesWithinTTL(t *testing.T) {
	f := &mockFetcher{}
	sut := NewService(f, time.Minute, zap.NewNop())
	now := time.Now()
	sut.now = func() time.Time { return now }

	_, err := sut.Product(context.Background(), "p1")
	require.NoError(t, err)
	_, err = sut.Product(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = sut.Product(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestProduct_ConcurrentLookupsShareCall(t *testing.T) {
	f := &mockFetcher{release: make(chan struct{})}
	sut := NewService(f, 0, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := sut.Product(context.Background(), "p1")
			assert.NoError(t, err)
			assert.Equal(t, "p1", p.ID)
		}()
	}
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.release)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
}

func TestProducts_WarmsCache(t *testing.T) {
	f := &mockFetcher{}
	sut := NewService(f, time.Minute, zap.NewNop())

	ps, err := sut.Products(context.Background())
	require.NoError(t, err)
	assert.Len(t, ps, 2)

	_, err = sut.Product(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestProduct_Error(t *testing.T) {
	sut := NewService(&mockFetcher{err: errors.New("boom")}, time.Minute, zap.NewNop())
	_, err := sut.Product(context.Background(), "p1")
	assert.ErrorContains(t, err, "boom")
}
