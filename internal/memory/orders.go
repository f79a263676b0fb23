package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LaZyMugen/shopnexa-sub000/internal/catalog"
	"github.com/LaZyMugen/shopnexa-sub000/internal/orders"
	"github.com/google/uuid"
)

// Orders is an in-memory orders.Store. It shares the Catalog's mutex
// indirectly through decrementAllLocked so a placement is atomic:
// either all lines decrement and the order exists, or nothing changed.
type Orders struct {
	mu       sync.Mutex
	catalog  *Catalog
	orders   map[string]orders.Order
	lines    map[string][]orders.Line
	byExtID  map[string]string
	creation []string // ids in creation order, newest last
}

var _ orders.Store = (*Orders)(nil)

func NewOrders(c *Catalog) *Orders {
	return &Orders{
		catalog: c,
		orders:  make(map[string]orders.Order),
		lines:   make(map[string][]orders.Line),
		byExtID: make(map[string]string),
	}
}

func (s *Orders) CreateOrder(ctx context.Context, buyerID, externalID *string, lines []orders.Line, totalCents int) (orders.Order, []orders.Line, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if externalID != nil {
		if id, ok := s.byExtID[*externalID]; ok {
			return s.orders[id], s.lines[id], true, nil
		}
	}

	adjustments := make([]catalog.Adjustment, 0, len(lines))
	for _, l := range lines {
		adjustments = append(adjustments, catalog.Adjustment{ProductID: l.ProductID, Qty: l.Qty})
	}
	s.catalog.mu.Lock()
	err := s.catalog.decrementAllLocked(adjustments)
	s.catalog.mu.Unlock()
	if err != nil {
		return orders.Order{}, nil, false, err
	}

	order := orders.Order{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		BuyerID:    buyerID,
		Status:     orders.StatusPending,
		TotalCents: totalCents,
		CreatedAt:  time.Now().UTC(),
	}
	stored := make([]orders.Line, 0, len(lines))
	for _, l := range lines {
		l.ID = uuid.NewString()
		l.OrderID = order.ID
		stored = append(stored, l)
	}
	s.orders[order.ID] = order
	s.lines[order.ID] = stored
	s.creation = append(s.creation, order.ID)
	if externalID != nil {
		s.byExtID[*externalID] = order.ID
	}
	return order, stored, false, nil
}

func (s *Orders) GetOrder(ctx context.Context, orderID string) (orders.Order, []orders.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return orders.Order{}, nil, fmt.Errorf("%w: %s", orders.ErrNotFound, orderID)
	}
	lines := make([]orders.Line, len(s.lines[orderID]))
	copy(lines, s.lines[orderID])
	return o, lines, nil
}

func (s *Orders) ListOrders(ctx context.Context, limit, offset int) ([]orders.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.creation)
	out := make([]orders.Order, 0, limit)
	// newest first
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.orders[s.creation[i]])
	}
	return out, total, nil
}

func (s *Orders) UpdateStatus(ctx context.Context, orderID string, to orders.Status) (orders.Order, orders.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return orders.Order{}, "", fmt.Errorf("%w: %s", orders.ErrNotFound, orderID)
	}
	from := o.Status
	if !orders.CanTransition(from, to) {
		return orders.Order{}, "", fmt.Errorf("%w: %s -> %s", orders.ErrInvalidTransition, from, to)
	}
	o.Status = to
	s.orders[orderID] = o
	return o, from, nil
}
