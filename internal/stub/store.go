package stub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"thaipool/internal/models"
)

var (
	ErrNotFound   = errors.New("order not found")
	ErrNotPending = errors.New("order is not pending")
	ErrBadStatus  = errors.New("unknown status")
)

// Store is the in-memory order book behind the stub backend. It emulates the
// platform's behavior for the collaborator endpoints; nothing here persists.
type Store struct {
	window time.Duration
	log    *zap.Logger

	mu     sync.Mutex
	orders map[string]*models.Order
	subs   map[string]map[chan models.OrderStatus]struct{}
}

func NewStore(window time.Duration, log *zap.Logger) *Store {
	return &Store{
		window: window,
		log:    log,
		orders: make(map[string]*models.Order),
		subs:   make(map[string]map[chan models.OrderStatus]struct{}),
	}
}

// Create seeds a pending order. Subtotals and the total are derived from the
// items so the total always equals the item sum.
func (s *Store) Create(userID, poolID string, items []models.OrderItem) *models.Order {
	now := time.Now().UTC()
	expires := now.Add(s.window)
	for i := range items {
		items[i].Subtotal = items[i].UnitPrice.Mul(decimal.NewFromInt(items[i].Quantity))
	}
	order := &models.Order{
		OrderID:          uuid.NewString(),
		UserID:           userID,
		PoolID:           poolID,
		Status:           models.OrderPending,
		PaymentExpiresAt: &expires,
		Items:            items,
		Total:            models.SumItems(items),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	s.mu.Lock()
	s.orders[order.OrderID] = order
	s.mu.Unlock()

	s.log.Info("order seeded", zap.String("order", order.OrderID), zap.String("total", order.Total.String()))
	return order
}

// Get returns a copy of the order.
func (s *Store) Get(orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *order
	return &cp, nil
}

// SetStatus moves an order to the given status and pushes it to every
// subscribed stream.
func (s *Store) SetStatus(orderID string, status models.OrderStatus) error {
	if !status.Known() {
		return ErrBadStatus
	}
	s.mu.Lock()
	order, ok := s.orders[orderID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	if status.Terminal() {
		order.PaymentExpiresAt = nil
	}
	s.broadcastLocked(orderID, status)
	s.mu.Unlock()

	s.log.Info("order status set", zap.String("order", orderID), zap.String("status", string(status)))
	return nil
}

// Cancel settles a pending order as cancelled.
func (s *Store) Cancel(orderID string) error {
	s.mu.Lock()
	order, ok := s.orders[orderID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if order.Status != models.OrderPending {
		s.mu.Unlock()
		return ErrNotPending
	}
	order.Status = models.OrderCancelled
	order.PaymentExpiresAt = nil
	order.UpdatedAt = time.Now().UTC()
	s.broadcastLocked(orderID, models.OrderCancelled)
	s.mu.Unlock()

	s.log.Info("order cancelled", zap.String("order", orderID))
	return nil
}

// Subscribe attaches a status listener to an order. The current status is
// returned so the stream can emit it immediately before any change lands.
func (s *Store) Subscribe(orderID string) (models.OrderStatus, <-chan models.OrderStatus, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return "", nil, nil, ErrNotFound
	}

	ch := make(chan models.OrderStatus, 8)
	if s.subs[orderID] == nil {
		s.subs[orderID] = make(map[chan models.OrderStatus]struct{})
	}
	s.subs[orderID][ch] = struct{}{}

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if set, ok := s.subs[orderID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(s.subs, orderID)
			}
		}
	}
	return order.Status, ch, unsubscribe, nil
}

func (s *Store) broadcastLocked(orderID string, status models.OrderStatus) {
	for ch := range s.subs[orderID] {
		select {
		case ch <- status:
		default:
			// Slow subscriber; it will catch up on its next refetch.
		}
	}
}

// MarkExpired settles pending orders whose payment deadline has passed and
// notifies their streams.
func (s *Store) MarkExpired(now time.Time) {
	s.mu.Lock()
	var expired []string
	for id, order := range s.orders {
		if order.Status == models.OrderPending && order.PaymentExpiresAt != nil && order.PaymentExpiresAt.Before(now) {
			order.Status = models.OrderExpired
			order.PaymentExpiresAt = nil
			order.UpdatedAt = now
			s.broadcastLocked(id, models.OrderExpired)
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.log.Info("order expired by sweeper", zap.String("order", id))
	}
}

// RunSweeper periodically expires overdue orders until ctx is cancelled.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.MarkExpired(time.Now().UTC())
		}
	}
}
