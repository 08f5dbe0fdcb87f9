package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
)

// DefaultInterval is how often an open tracking view re-fetches.
const DefaultInterval = 8 * time.Second

var ErrStarted = errors.New("tracker already started")

type Fetcher interface {
	Tracking(ctx context.Context, orderID string) (domain.Tracking, error)
}

// Tracker polls one order's tracking resource until the order is delivered
// or the tracker is stopped.
type Tracker struct {
	orderID  string
	fetcher  Fetcher
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.RWMutex
	data      domain.Tracking
	loaded    bool
	lastErr   error
	fetchedAt time.Time
	delivered bool
	fetches   int

	cancel  context.CancelFunc
	stopped chan struct{}
	wg      sync.WaitGroup
}

func New(fetcher Fetcher, orderID string, interval time.Duration, logger *zap.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tracker{
		orderID:  orderID,
		fetcher:  fetcher,
		interval: interval,
		logger:   logger.With(zap.String("order_id", orderID)),
		now:      time.Now,
	}
}

// Start fetches once and, unless the order is already delivered, starts
// polling in the background. Polling ends when ctx is done, Stop is called
// or a fetch reports Delivered.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.cancel != nil {
		t.mu.Unlock()
		return ErrStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.stopped = make(chan struct{})
	t.mu.Unlock()

	t.fetch(ctx)
	if t.Delivered() {
		close(t.stopped)
		return nil
	}

	go t.run(ctx)
	return nil
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.stopped)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if t.Delivered() {
				return
			}
			// a slow response must not hold back the next tick
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				t.fetch(ctx)
			}()
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends polling and waits for the loop and any in-flight fetch to exit.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, stopped := t.cancel, t.stopped
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-stopped
	t.wg.Wait()
}

// Done is closed once polling has ended for any reason.
func (t *Tracker) Done() <-chan struct{} {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stopped
}

func (t *Tracker) fetch(ctx context.Context) {
	tr, err := t.fetcher.Tracking(ctx, t.orderID)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetches++
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		t.logger.Warn("tracking fetch failed", zap.Error(err))
		t.lastErr = err
		return
	}
	t.data = tr
	t.loaded = true
	t.lastErr = nil
	t.fetchedAt = t.now()
	if domain.IsDelivered(tr.Status) && !t.delivered {
		t.delivered = true
		t.logger.Info("order delivered, tracking stopped")
		if t.cancel != nil {
			t.cancel()
		}
	}
}

func (t *Tracker) Delivered() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.delivered
}

// Progress is the fraction of the lifecycle reached by the current status.
func (t *Tracker) Progress() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return domain.Progress(t.data.Status)
}

// Fetches counts completed fetch attempts, successful or not.
func (t *Tracker) Fetches() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fetches
}

type Entry struct {
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	Location  string          `json:"location,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Ago       string          `json:"ago"`
}

// Snapshot is what the tracking page renders.
type Snapshot struct {
	OrderID    string          `json:"orderId"`
	Loaded     bool            `json:"loaded"`
	Status     string          `json:"status"`
	StageIndex int             `json:"stageIndex"`
	Progress   float64         `json:"progress"`
	Stages     []domain.Stage  `json:"stages"`
	Courier    *domain.Courier `json:"courier,omitempty"`
	Timeline   []Entry         `json:"timeline"`
	Delivered  bool            `json:"delivered"`
	Error      string          `json:"error,omitempty"`
	FetchedAt  time.Time       `json:"fetchedAt"`
}

// Snapshot returns the latest tracking data. Timeline entries keep the order
// the backend sent them in.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	s := Snapshot{
		OrderID:    t.orderID,
		Loaded:     t.loaded,
		Status:     t.data.Status,
		StageIndex: domain.StageIndex(t.data.Status),
		Progress:   domain.Progress(t.data.Status),
		Stages:     domain.Stages,
		Courier:    t.data.Courier,
		Timeline:   make([]Entry, 0, len(t.data.Events)),
		Delivered:  t.delivered,
		FetchedAt:  t.fetchedAt,
	}
	if t.lastErr != nil {
		s.Error = t.lastErr.Error()
	}
	for _, e := range t.data.Events {
		s.Timeline = append(s.Timeline, Entry{
			Status:    e.Status,
			Message:   e.Message,
			Location:  e.Location,
			Meta:      e.Meta,
			Timestamp: e.Timestamp,
			Ago:       Ago(e.Timestamp, now),
		})
	}
	return s
}

// Ago renders ts relative to now, e.g. "3 hours ago".
func Ago(ts, now time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return humanize.RelTime(ts, now, "ago", "from now")
}
