package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/LaZyMugen/shopnexa-sub000/internal/catalog"
	"github.com/LaZyMugen/shopnexa-sub000/internal/memory"
	"github.com/LaZyMugen/shopnexa-sub000/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// recordingSink captures emitted events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSink) Emit(key, value []byte, eventType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fakeCache struct {
	mu sync.Mutex
	m  map[string]orders.Status
}

func newFakeCache() *fakeCache { return &fakeCache{m: map[string]orders.Status{}} }

func (c *fakeCache) SetStatus(_ context.Context, id string, st orders.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[id] = st
}

func (c *fakeCache) GetStatus(_ context.Context, id string) (orders.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.m[id]
	return st, ok
}

func newService(t *testing.T) (*orders.Service, *memory.Catalog, *recordingSink, *recordingSink) {
	t.Helper()
	cat := memory.NewCatalog()
	created := &recordingSink{}
	status := &recordingSink{}
	svc := &orders.Service{
		Store:        memory.NewOrders(cat),
		Catalog:      cat,
		CreatedSink:  created,
		StatusSink:   status,
		Cache:        newFakeCache(),
		ProducerName: "test",
	}
	return svc, cat, created, status
}

func seedWidget(cat *memory.Catalog, stock int) {
	cat.Seed(catalog.Product{ID: "A", SKU: "SKU-A", Name: "widget", PriceCents: 1000, Stock: stock})
}

func place(svc *orders.Service, qty int) (orders.Order, []orders.Line, bool, error) {
	return svc.PlaceOrder(context.Background(), orders.PlaceRequest{
		Items: []orders.LineRequest{{ProductID: "A", Qty: qty}},
	})
}

func TestPlaceOrder_HappyPath(t *testing.T) {
	svc, cat, created, _ := newService(t)
	seedWidget(cat, 5)

	buyer := "u-1"
	order, lines, existed, err := svc.PlaceOrder(context.Background(), orders.PlaceRequest{
		BuyerID: &buyer,
		Items:   []orders.LineRequest{{ProductID: "A", Qty: 2}},
	})
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, orders.StatusPending, order.Status)
	assert.Equal(t, 2000, order.TotalCents)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Qty)
	assert.Equal(t, 1000, lines[0].PriceCents)
	assert.Equal(t, 3, cat.Stock("A"))
	assert.Equal(t, 1, created.count())
}

func TestPlaceOrder_GuestOrderAllowed(t *testing.T) {
	svc, cat, _, _ := newService(t)
	seedWidget(cat, 1)

	order, _, _, err := place(svc, 1)
	require.NoError(t, err)
	assert.Nil(t, order.BuyerID)
}

// The worked scenario: stock 2, price 10.00.
func TestPlaceOrder_Scenario(t *testing.T) {
	svc, cat, _, _ := newService(t)
	seedWidget(cat, 2)

	// qty 3 -> rejected, no order created, stock untouched
	_, _, _, err := place(svc, 3)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.Equal(t, 2, cat.Stock("A"))
	page, err := svc.ListOrders(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	// qty 2 -> created, total 2000, stock drained
	order, _, _, err := place(svc, 2)
	require.NoError(t, err)
	assert.Equal(t, 2000, order.TotalCents)
	assert.Equal(t, 0, cat.Stock("A"))

	// qty 1 -> rejected again
	_, _, _, err = place(svc, 1)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.Equal(t, 0, cat.Stock("A"))
}

func TestPlaceOrder_PriceSnapshotSurvivesCatalogChanges(t *testing.T) {
	svc, cat, _, _ := newService(t)
	seedWidget(cat, 10)

	order, lines, _, err := place(svc, 2)
	require.NoError(t, err)

	cat.SetPrice("A", 9999)

	got, gotLines, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2000, got.TotalCents)
	require.Len(t, gotLines, 1)
	assert.Equal(t, 1000, gotLines[0].PriceCents)
	assert.Equal(t, lines[0].PriceCents, gotLines[0].PriceCents)
}

func TestPlaceOrder_EmptyOrderRejectedBeforeAnyIO(t *testing.T) {
	svc, _, created, _ := newService(t)
	_, _, _, err := svc.PlaceOrder(context.Background(), orders.PlaceRequest{})
	assert.ErrorIs(t, err, orders.ErrEmptyOrder)
	assert.Equal(t, 0, created.count())
}

func TestPlaceOrder_IdempotentByExternalID(t *testing.T) {
	svc, cat, created, _ := newService(t)
	seedWidget(cat, 10)

	ext := "client-42"
	req := orders.PlaceRequest{
		ExternalID: &ext,
		Items:      []orders.LineRequest{{ProductID: "A", Qty: 1}},
	}
	first, _, existed, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, existed)

	second, _, existed, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 9, cat.Stock("A"), "replay must not decrement again")
	assert.Equal(t, 1, created.count(), "replay must not publish again")
}

// N concurrent single-unit placements against stock S: exactly S
// succeed, the rest fail with insufficient stock, and the decrement
// total matches the success count.
func TestPlaceOrder_NoOversellUnderConcurrency(t *testing.T) {
	const stock, requests = 5, 20

	svc, cat, _, _ := newService(t)
	seedWidget(cat, stock)

	var mu sync.Mutex
	successes, insufficient := 0, 0

	var g errgroup.Group
	for i := 0; i < requests; i++ {
		g.Go(func() error {
			_, _, _, err := place(svc, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, catalog.ErrInsufficientStock):
				insufficient++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, stock, successes)
	assert.Equal(t, requests-stock, insufficient)
	assert.Equal(t, 0, cat.Stock("A"), "stock must land exactly at zero, never below")

	page, err := svc.ListOrders(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, stock, page.Total)
}

func TestGetOrder_IdempotentRead(t *testing.T) {
	svc, cat, _, _ := newService(t)
	seedWidget(cat, 5)

	order, _, _, err := place(svc, 2)
	require.NoError(t, err)

	a, aLines, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	b, bLines, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, aLines, bLines)
}

func TestGetOrder_NotFound(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, _, err := svc.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

func TestSetStatus(t *testing.T) {
	svc, cat, _, statusSink := newService(t)
	seedWidget(cat, 5)

	order, _, _, err := place(svc, 1)
	require.NoError(t, err)

	updated, err := svc.SetStatus(context.Background(), order.ID, orders.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, updated.Status)
	assert.Equal(t, 1, statusSink.count())

	// pending is not reachable from paid
	_, err = svc.SetStatus(context.Background(), order.ID, orders.StatusPending)
	assert.ErrorIs(t, err, orders.ErrInvalidTransition)

	// unrecognized value fails before touching the store
	_, err = svc.SetStatus(context.Background(), order.ID, "refunded")
	assert.ErrorIs(t, err, orders.ErrInvalidStatus)

	_, err = svc.SetStatus(context.Background(), "missing", orders.StatusPaid)
	assert.ErrorIs(t, err, orders.ErrNotFound)

	assert.Equal(t, 1, statusSink.count(), "failed transitions must not publish")
}

func TestGetStatus_UsesCacheAndRewarmsOnMiss(t *testing.T) {
	svc, cat, _, _ := newService(t)
	seedWidget(cat, 5)
	cache := svc.Cache.(*fakeCache)

	order, _, _, err := place(svc, 1)
	require.NoError(t, err)

	st, ok := cache.GetStatus(context.Background(), order.ID)
	require.True(t, ok, "placement warms the cache")
	assert.Equal(t, orders.StatusPending, st)

	// cold cache falls back to the store and re-warms
	delete(cache.m, order.ID)
	got, err := svc.GetStatus(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, got)
	_, ok = cache.GetStatus(context.Background(), order.ID)
	assert.True(t, ok)
}

func TestListOrders_PaginationBounds(t *testing.T) {
	svc, cat, _, _ := newService(t)
	cat.Seed(catalog.Product{ID: "A", SKU: "SKU-A", Name: "widget", PriceCents: 100, Stock: 1000})

	const n = 150
	for i := 0; i < n; i++ {
		_, _, _, err := place(svc, 1)
		require.NoError(t, err)
	}

	// oversized page_size is capped, total stays truthful
	page, err := svc.ListOrders(context.Background(), 1, 1000)
	require.NoError(t, err)
	assert.Len(t, page.Orders, orders.MaxPageSize)
	assert.Equal(t, n, page.Total)
	assert.Equal(t, orders.MaxPageSize, page.PageSize)

	// page and page_size are coerced to sane values
	page, err = svc.ListOrders(context.Background(), 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, orders.DefaultPageSize, page.PageSize)
	assert.Len(t, page.Orders, orders.DefaultPageSize)

	// last page holds the remainder
	page, err = svc.ListOrders(context.Background(), 2, 100)
	require.NoError(t, err)
	assert.Len(t, page.Orders, n-orders.MaxPageSize)
}
