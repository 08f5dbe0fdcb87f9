// Package app is the composition root for shopper sessions. It builds each
// session's view-models explicitly instead of keeping global state.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cancellation"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/localstore"
	"github.com/fjod/go_cart/storefront/internal/tracking"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultIdleTTL is how long an untouched session keeps its view-models.
	DefaultIdleTTL = 30 * time.Minute

	cleanupInterval = time.Minute
)

var ErrInvalidSessionID = errors.New("invalid session id")

// Backend is every REST call a session's view-models make.
type Backend interface {
	checkout.Backend
	tracking.Fetcher
	cancellation.Backend
	catalog.PincodeChecker
	AdminOrder(ctx context.Context, id string) (domain.Order, error)
}

type Config struct {
	Store        localstore.Store
	Backend      Backend
	Publisher    events.Publisher
	Policy       domain.ShippingPolicy
	AssetBase    string
	PollInterval time.Duration
	IdleTTL      time.Duration
	Logger       *zap.Logger
}

// Registry owns the live sessions of this process. Sessions idle past the TTL
// are dropped from memory; their stored state stays in the store.
type Registry struct {
	store        localstore.Store
	backend      Backend
	publisher    events.Publisher
	policy       domain.ShippingPolicy
	assetBase    string
	pollInterval time.Duration
	idleTTL      time.Duration
	logger       *zap.Logger
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewRegistry(cfg Config) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.NopPublisher{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		store:        cfg.Store,
		backend:      cfg.Backend,
		policy:       cfg.Policy,
		assetBase:    cfg.AssetBase,
		pollInterval: cfg.PollInterval,
		idleTTL:      cfg.IdleTTL,
		logger:       cfg.Logger,
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
		sessions:     make(map[string]*Session),
		stopCleanup:  make(chan struct{}),
	}
	// the placing session's cart is cleared in-process; other processes
	// sharing the store hear about it from the broker
	r.publisher = events.Fanout(events.PublisherFunc(r.clearOnOrderPlaced), cfg.Publisher)

	r.wg.Add(1)
	go r.cleanupLoop()

	return r
}

// NewSessionID returns a fresh id for a shopper without one.
func NewSessionID() string {
	return uuid.NewString()
}

// Session returns the live session for id, hydrating it from the store on
// first use.
func (r *Registry) Session(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidSessionID
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.touch(now)
		return s, nil
	}
	s := newSession(ctx, id, r)
	r.sessions[id] = s
	r.logger.Debug("session opened", zap.String("session_id", id))
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ClearCart empties a session's cart whether or not it is live here.
func (r *Registry) ClearCart(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if ok {
		return s.Cart.Clear(ctx)
	}
	return localstore.SaveJSON(ctx, localstore.Namespaced(r.store, sessionID), localstore.KeyCart, []domain.CartLineItem{})
}

func (r *Registry) clearOnOrderPlaced(ctx context.Context, e events.Event) error {
	if e.Type != events.TypeOrderPlaced {
		return nil
	}
	return r.ClearCart(ctx, e.SessionID)
}

// Close stops the cleanup loop and every tracker.
func (r *Registry) Close() {
	close(r.stopCleanup)
	r.wg.Wait()
	r.cancel()

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.reset()
	}
}

func (r *Registry) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *Registry) evictIdle() {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.reset()
		r.logger.Debug("session evicted", zap.String("session_id", s.ID))
	}
}

var (
	_ events.CartResetter = (*Registry)(nil)
	_ Backend             = (*api.Client)(nil)
)
