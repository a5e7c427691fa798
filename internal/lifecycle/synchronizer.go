// Package lifecycle owns the payment-side state of a single order: it fetches
// the order once, then races a countdown against the server's status push
// until the order settles. All state lives behind one lock with a single
// writer, so a timer tick and a stream event can never interleave on stale
// reads.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"thaipool/internal/models"
	"thaipool/internal/stream"
)

var (
	ErrNotPending = errors.New("order is not pending")
	ErrAlreadyRun = errors.New("synchronizer already ran")
	ErrNoOrder    = errors.New("order not loaded")
)

// OrderAPI is the slice of the backend the synchronizer needs.
type OrderAPI interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// StreamOpener opens the status push feed for an order.
type StreamOpener interface {
	Open(ctx context.Context, orderID string) <-chan stream.StatusEvent
}

type Config struct {
	OrderID       string
	TickInterval  time.Duration
	PaymentWindow time.Duration
	// Now is the clock source; defaults to time.Now. Injected so tests can
	// drive synthetic time.
	Now func() time.Time
}

// Snapshot is the read side of the synchronizer state. Copies are handed to
// arbitrarily many readers while the synchronizer keeps the only write role.
type Snapshot struct {
	Order            *models.Order
	RemainingSeconds *int64
	Percent          float64
	StreamConnected  bool
	ExpiryFired      bool
}

func (s Snapshot) Status() models.OrderStatus {
	if s.Order == nil {
		return ""
	}
	return s.Order.Status
}

type Synchronizer struct {
	api     OrderAPI
	streams StreamOpener
	log     *zap.Logger
	cfg     Config

	// onChange is invoked outside the lock after every state change.
	onChange func(Snapshot)

	mu          sync.RWMutex
	order       *models.Order
	remaining   *int64
	percent     float64
	connected   bool
	expiryFired bool
	closed      bool
	started     bool
}

func New(api OrderAPI, streams StreamOpener, log *zap.Logger, cfg Config) *Synchronizer {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Synchronizer{api: api, streams: streams, log: log, cfg: cfg}
}

// OnChange registers a hook called after every state change. Must be set
// before Run.
func (s *Synchronizer) OnChange(fn func(Snapshot)) {
	s.onChange = fn
}

// Snapshot returns a copy of the current state for the presentation layer.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Synchronizer) snapshotLocked() Snapshot {
	snap := Snapshot{
		Percent:         s.percent,
		StreamConnected: s.connected,
		ExpiryFired:     s.expiryFired,
	}
	if s.order != nil {
		order := *s.order
		snap.Order = &order
	}
	if s.remaining != nil {
		r := *s.remaining
		snap.RemainingSeconds = &r
	}
	return snap
}

// Run drives the synchronizer until the order settles or ctx is cancelled.
// It fetches the order once; a non-pending order settles immediately with no
// timer or stream started. On return the stream is torn down and any further
// tick or event is ignored.
func (s *Synchronizer) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyRun
	}
	s.started = true
	s.mu.Unlock()
	defer s.close()

	order, err := s.api.GetOrder(ctx, s.cfg.OrderID)
	if err != nil {
		return err
	}
	s.setOrder(order)
	if order.Status.Terminal() {
		return nil
	}

	streamCtx, cancelStream := context.WithCancel(ctx)
	defer cancelStream()
	events := s.streams.Open(streamCtx, order.OrderID)
	s.setConnected(true)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	// Prime the countdown so the first display is not a tick late. The
	// deadline may already have passed by the time the fetch lands.
	if fire, settled := s.applyTick(s.cfg.Now()); fire || settled {
		if fire {
			s.runCancelEffect(ctx)
		}
		return nil
	}

	for {
		// A user-initiated Cancel settles the order from outside the loop;
		// notice it on the next wakeup.
		if s.settled() {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				// Best-effort channel went away; the countdown and
				// refetching remain the source of truth.
				events = nil
				s.setConnected(false)
				continue
			}
			if s.applyEvent(ev) {
				return nil
			}
		case <-ticker.C:
			// Stream events queued before this tick are processed first:
			// a payment that lands in the final second must beat expiry.
			if settled, drained := s.drainEvents(events); settled {
				return nil
			} else if drained {
				events = nil
				s.setConnected(false)
			}
			fire, settled := s.applyTick(s.cfg.Now())
			if fire {
				s.runCancelEffect(ctx)
			}
			if settled {
				return nil
			}
		}
	}
}

func (s *Synchronizer) settled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order != nil && s.order.Status.Terminal()
}

// drainEvents consumes every event already buffered on the stream without
// blocking. settled means a terminal transition happened; drained means the
// channel closed.
func (s *Synchronizer) drainEvents(events <-chan stream.StatusEvent) (settled, drained bool) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return false, true
			}
			if s.applyEvent(ev) {
				return true, false
			}
		default:
			return false, false
		}
	}
}

// applyEvent folds one stream event into the state. Returns true when the
// order settles. Events for an already settled order are discarded: local
// state has converged and no transition may be undone.
func (s *Synchronizer) applyEvent(ev stream.StatusEvent) bool {
	s.mu.Lock()
	if s.closed || s.order == nil || s.order.Status != models.OrderPending {
		s.mu.Unlock()
		return false
	}
	if !ev.Status.Terminal() {
		s.mu.Unlock()
		return false
	}
	s.order.Status = ev.Status
	s.connected = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("order settled by stream",
		zap.String("order", s.cfg.OrderID),
		zap.String("status", string(ev.Status)))
	s.notify(snap)
	return true
}

// applyTick advances the countdown. fire is true exactly once, on the tick
// where the deadline lapses first: the expiry flag is set before the cancel
// call is made, so a slow or repeated tick cannot issue it twice.
func (s *Synchronizer) applyTick(now time.Time) (fire, settled bool) {
	s.mu.Lock()
	if s.closed || s.order == nil || s.order.Status != models.OrderPending {
		s.mu.Unlock()
		return false, false
	}

	d := Deadline{ExpiresAt: s.order.PaymentExpiresAt, Window: s.cfg.PaymentWindow}
	if remaining, ok := d.Remaining(now); ok {
		s.remaining = &remaining
		s.percent = d.Percent(now)
	} else {
		s.remaining = nil
		s.percent = 0
	}

	if !d.Expired(now) || s.expiryFired {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return false, false
	}

	s.expiryFired = true
	s.order.Status = models.OrderExpired
	s.connected = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("payment window lapsed", zap.String("order", s.cfg.OrderID))
	s.notify(snap)
	return true, true
}

// Cancel is the user-initiated cancel. It shares the at-most-once guard with
// the expiry path, so cancelling right at the deadline cannot double-fire
// the backend call.
func (s *Synchronizer) Cancel(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.expiryFired {
		s.mu.Unlock()
		return nil
	}
	if s.order == nil {
		s.mu.Unlock()
		return ErrNoOrder
	}
	if s.order.Status != models.OrderPending {
		s.mu.Unlock()
		return ErrNotPending
	}
	s.expiryFired = true
	s.order.Status = models.OrderCancelled
	s.connected = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("order cancelled by user", zap.String("order", s.cfg.OrderID))
	s.notify(snap)
	s.runCancelEffect(ctx)
	return nil
}

// runCancelEffect performs the external cancel call and the reconciling
// fetch. Both are best effort: the local state already moved on, and a
// failure here leaves a short inconsistency window the next authoritative
// fetch resolves.
func (s *Synchronizer) runCancelEffect(ctx context.Context) {
	if err := s.api.CancelOrder(ctx, s.cfg.OrderID); err != nil {
		s.log.Warn("cancel call failed", zap.String("order", s.cfg.OrderID), zap.Error(err))
	}

	order, err := s.api.GetOrder(ctx, s.cfg.OrderID)
	if err != nil {
		s.log.Warn("reconcile fetch failed", zap.String("order", s.cfg.OrderID), zap.Error(err))
		return
	}
	s.reconcile(order)
}

// reconcile replaces the snapshot with a fresh authoritative one. A fetch
// that still reports pending is ignored: local transitions are monotonic and
// the backend will catch up.
func (s *Synchronizer) reconcile(order *models.Order) {
	if !order.Status.Terminal() {
		s.log.Warn("reconcile fetch still pending", zap.String("order", order.OrderID))
		return
	}
	s.mu.Lock()
	s.order = order
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Synchronizer) setOrder(order *models.Order) {
	s.mu.Lock()
	s.order = order
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Synchronizer) setConnected(v bool) {
	s.mu.Lock()
	if s.closed || s.connected == v {
		s.mu.Unlock()
		return
	}
	s.connected = v
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// close marks the synchronizer disposed; ticks and events arriving after
// teardown are dropped.
func (s *Synchronizer) close() {
	s.mu.Lock()
	s.closed = true
	s.connected = false
	s.mu.Unlock()
}

func (s *Synchronizer) notify(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
