package orders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LaZyMugen/shopnexa-sub000/internal/catalog"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service orchestrates order placement, lookup and status changes.
// Events and Cache are optional; when nil the corresponding side
// effects are skipped.
type Service struct {
	Store        Store
	Catalog      catalog.Store
	CreatedSink  EventSink
	StatusSink   EventSink
	Cache        StatusCache
	Log          *zap.Logger
	ProducerName string
}

func (s *Service) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}

// PlaceOrder validates and prices the request against the catalog, then
// persists header, lines and decrements in one transaction. Validation
// is a read-only pre-check; the store re-checks stock at decrement time,
// so two placements racing on the same product cannot oversell.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceRequest) (Order, []Line, bool, error) {
	if len(req.Items) == 0 {
		return Order{}, nil, false, ErrEmptyOrder
	}

	products, err := s.Catalog.FetchByIDs(ctx, ProductIDs(req.Items))
	if err != nil {
		return Order{}, nil, false, err
	}
	lines, total, err := PriceLines(req.Items, products)
	if err != nil {
		return Order{}, nil, false, err
	}

	order, lines, existed, err := s.Store.CreateOrder(ctx, req.BuyerID, req.ExternalID, lines, total)
	if err != nil {
		return Order{}, nil, false, err
	}
	if existed {
		return order, lines, true, nil
	}

	if s.Cache != nil {
		s.Cache.SetStatus(ctx, order.ID, order.Status)
	}
	s.emitCreated(order, lines)
	s.logger().Info("order placed",
		zap.String("order_id", order.ID),
		zap.Int("total_cents", order.TotalCents),
		zap.Int("lines", len(lines)))
	return order, lines, false, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (Order, []Line, error) {
	return s.Store.GetOrder(ctx, orderID)
}

// GetStatus serves from the cache when warm, falling back to the store
// and re-warming on a miss.
func (s *Service) GetStatus(ctx context.Context, orderID string) (Status, error) {
	if s.Cache != nil {
		if st, ok := s.Cache.GetStatus(ctx, orderID); ok {
			return st, nil
		}
	}
	order, _, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if s.Cache != nil {
		s.Cache.SetStatus(ctx, orderID, order.Status)
	}
	return order.Status, nil
}

// ListOrders coerces page and pageSize to at least 1 and caps pageSize
// at MaxPageSize. pageSize 0 means "not specified" and gets the default.
func (s *Service) ListOrders(ctx context.Context, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	list, total, err := s.Store.ListOrders(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return Page{}, err
	}
	return Page{Orders: list, Total: total, Page: page, PageSize: pageSize}, nil
}

// SetStatus moves the order to a new status, enforcing both the
// recognized value set and the transition graph.
func (s *Service) SetStatus(ctx context.Context, orderID string, to Status) (Order, error) {
	if !Recognized(to) {
		return Order{}, ErrInvalidStatus
	}
	order, from, err := s.Store.UpdateStatus(ctx, orderID, to)
	if err != nil {
		return Order{}, err
	}
	if s.Cache != nil {
		s.Cache.SetStatus(ctx, order.ID, order.Status)
	}
	s.emitStatusChanged(order, from)
	s.logger().Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", string(from)),
		zap.String("to", string(order.Status)))
	return order, nil
}

func (s *Service) emitCreated(order Order, lines []Line) {
	if s.CreatedSink == nil {
		return
	}
	items := make([]LinePayload, 0, len(lines))
	for _, l := range lines {
		items = append(items, LinePayload{ProductID: l.ProductID, Qty: l.Qty, PriceCents: l.PriceCents})
	}
	s.emit(s.CreatedSink, EventOrderCreated, order.ID, OrderCreatedPayload{
		OrderID:    order.ID,
		BuyerID:    order.BuyerID,
		Items:      items,
		TotalCents: order.TotalCents,
	})
}

func (s *Service) emitStatusChanged(order Order, from Status) {
	if s.StatusSink == nil {
		return
	}
	s.emit(s.StatusSink, EventStatusChanged, order.ID, StatusChangedPayload{
		OrderID:   order.ID,
		OldStatus: from,
		NewStatus: order.Status,
	})
}

func (s *Service) emit(sink EventSink, eventType, orderID string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger().Error("encode event payload", zap.String("event", eventType), zap.Error(err))
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ProducerName,
		CorrelationID: orderID,
		Payload:       body,
	}
	value, err := json.Marshal(ev)
	if err != nil {
		s.logger().Error("encode event envelope", zap.String("event", eventType), zap.Error(err))
		return
	}
	sink.Emit(PartitionKey(orderID), value, eventType)
}
