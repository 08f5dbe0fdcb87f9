package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Fetcher interface {
	Product(ctx context.Context, id string) (domain.Product, error)
	Products(ctx context.Context) ([]domain.Product, error)
}

type cached struct {
	product   domain.Product
	expiresAt time.Time
}

// Service looks products up by id. Concurrent lookups of the same id share
// one backend call and results are kept for a short TTL.
type Service struct {
	fetcher Fetcher
	ttl     time.Duration
	logger  *zap.Logger
	group   singleflight.Group
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]cached
}

func NewService(fetcher Fetcher, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		cache:   make(map[string]cached),
	}
}

func (s *Service) Product(ctx context.Context, id string) (domain.Product, error) {
	if p, ok := s.lookup(id); ok {
		return p, nil
	}

	v, err, shared := s.group.Do("product:"+id, func() (interface{}, error) {
		p, err := s.fetcher.Product(ctx, id)
		if err != nil {
			return domain.Product{}, err
		}
		s.store(p)
		return p, nil
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	if shared {
		s.logger.Debug("product lookup shared", zap.String("product_id", id))
	}
	return v.(domain.Product), nil
}

// Products lists the catalog and refreshes the per-id cache with the result.
func (s *Service) Products(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := s.group.Do("products", func() (interface{}, error) {
		ps, err := s.fetcher.Products(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range ps {
			s.store(p)
		}
		return ps, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return v.([]domain.Product), nil
}

func (s *Service) lookup(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cache[id]
	if !ok || s.now().After(c.expiresAt) {
		return domain.Product{}, false
	}
	return c.product, true
}

func (s *Service) store(p domain.Product) {
	if s.ttl <= 0 || p.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[p.ID] = cached{product: p, expiresAt: s.now().Add(s.ttl)}
}
