package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
)

type Product struct {
	ID         string    `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	PriceCents int       `json:"price_cents"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Adjustment is one requested stock decrement.
type Adjustment struct {
	ProductID string
	Qty       int
}

// StockChange records a decrement that was applied.
type StockChange struct {
	ProductID string `json:"product_id"`
	OldStock  int    `json:"old_stock"`
	NewStock  int    `json:"new_stock"`
}

// SkippedItem records a decrement that was not applied and why.
type SkippedItem struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

// BulkResult reports per-item outcomes of a best-effort batch decrement.
type BulkResult struct {
	Updated []StockChange `json:"updated"`
	Skipped []SkippedItem `json:"skipped"`
}

// Skip reasons used in BulkResult.
const (
	SkipNotFound          = "not_found"
	SkipInsufficientStock = "insufficient_stock"
	SkipWriteFailed       = "write_failed"
)

// Store is the catalog access used by order placement and stock
// administration. DecrementStock is the only stock writer: check and
// write happen as one atomic conditional update.
type Store interface {
	List(ctx context.Context) ([]Product, error)
	FetchByIDs(ctx context.Context, ids []string) ([]Product, error)
	// DecrementStock subtracts qty from the product's stock, failing with
	// ErrInsufficientStock when stock < qty and ErrNotFound when the id
	// is unknown. Returns old and new stock on success.
	DecrementStock(ctx context.Context, productID string, qty int) (StockChange, error)
	// BulkDecrement applies each adjustment independently; one bad item
	// never fails the batch.
	BulkDecrement(ctx context.Context, items []Adjustment) (BulkResult, error)
}
