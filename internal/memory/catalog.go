package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LaZyMugen/shopnexa-sub000/internal/catalog"
)

// Catalog is an in-memory catalog.Store guarded by one mutex, so every
// stock check-and-write is atomic the same way the SQL conditional
// update is.
type Catalog struct {
	mu       sync.Mutex
	products map[string]*catalog.Product
}

var _ catalog.Store = (*Catalog)(nil)

func NewCatalog() *Catalog {
	return &Catalog{products: make(map[string]*catalog.Product)}
}

// Seed inserts or replaces a product.
func (c *Catalog) Seed(p catalog.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := p
	c.products[p.ID] = &cp
}

// SetPrice changes a product's price, for exercising price snapshots.
func (c *Catalog) SetPrice(productID string, priceCents int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.products[productID]; ok {
		p.PriceCents = priceCents
		p.UpdatedAt = time.Now().UTC()
	}
}

// Stock returns the current stock, -1 when the product is unknown.
func (c *Catalog) Stock(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.products[productID]; ok {
		return p.Stock
	}
	return -1
}

func (c *Catalog) List(ctx context.Context) ([]catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]catalog.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (c *Catalog) FetchByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (c *Catalog) DecrementStock(ctx context.Context, productID string, qty int) (catalog.StockChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decrementLocked(productID, qty)
}

func (c *Catalog) decrementLocked(productID string, qty int) (catalog.StockChange, error) {
	if qty < 1 {
		qty = 1
	}
	p, ok := c.products[productID]
	if !ok {
		return catalog.StockChange{}, fmt.Errorf("%w: %s", catalog.ErrNotFound, productID)
	}
	if p.Stock < qty {
		return catalog.StockChange{}, fmt.Errorf("%w: %s", catalog.ErrInsufficientStock, productID)
	}
	old := p.Stock
	p.Stock -= qty
	p.UpdatedAt = time.Now().UTC()
	return catalog.StockChange{ProductID: productID, OldStock: old, NewStock: p.Stock}, nil
}

func (c *Catalog) BulkDecrement(ctx context.Context, items []catalog.Adjustment) (catalog.BulkResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := catalog.BulkResult{
		Updated: []catalog.StockChange{},
		Skipped: []catalog.SkippedItem{},
	}
	for _, it := range items {
		change, err := c.decrementLocked(it.ProductID, it.Qty)
		switch {
		case err == nil:
			res.Updated = append(res.Updated, change)
		case errors.Is(err, catalog.ErrNotFound):
			res.Skipped = append(res.Skipped, catalog.SkippedItem{ProductID: it.ProductID, Reason: catalog.SkipNotFound})
		default:
			res.Skipped = append(res.Skipped, catalog.SkippedItem{ProductID: it.ProductID, Reason: catalog.SkipInsufficientStock})
		}
	}
	return res, nil
}

// decrementAllLocked applies every decrement or none, undoing applied
// ones on the first failure. This is the memory analogue of the
// placement transaction.
func (c *Catalog) decrementAllLocked(items []catalog.Adjustment) error {
	applied := make([]catalog.Adjustment, 0, len(items))
	for _, it := range items {
		if _, err := c.decrementLocked(it.ProductID, it.Qty); err != nil {
			for _, a := range applied {
				c.products[a.ProductID].Stock += a.Qty
			}
			return err
		}
		qty := it.Qty
		if qty < 1 {
			qty = 1
		}
		applied = append(applied, catalog.Adjustment{ProductID: it.ProductID, Qty: qty})
	}
	return nil
}
