package orders

import (
	"fmt"

	"github.com/LaZyMugen/shopnexa-sub000/internal/catalog"
)

// PriceLines validates the requested items against the given product
// records and prices each line with the product's current price. It is
// read-only: the authoritative stock check happens again at decrement
// time inside the placement transaction.
//
// Quantities below 1 are coerced to 1. The stock check sums quantities
// per product so a product requested on two lines is checked against
// the combined demand.
func PriceLines(items []LineRequest, products []catalog.Product) ([]Line, int, error) {
	if len(items) == 0 {
		return nil, 0, ErrEmptyOrder
	}

	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	need := make(map[string]int, len(items))
	lines := make([]Line, 0, len(items))
	total := 0
	for _, it := range items {
		qty := it.Qty
		if qty < 1 {
			qty = 1
		}
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", catalog.ErrNotFound, it.ProductID)
		}
		need[it.ProductID] += qty
		if p.Stock < need[it.ProductID] {
			return nil, 0, fmt.Errorf("%w: %s", catalog.ErrInsufficientStock, it.ProductID)
		}
		lines = append(lines, Line{
			ProductID:  it.ProductID,
			Qty:        qty,
			PriceCents: p.PriceCents,
		})
		total += p.PriceCents * qty
	}
	return lines, total, nil
}

// ProductIDs returns the distinct product ids referenced by items, in
// first-seen order, for the batch catalog lookup.
func ProductIDs(items []LineRequest) []string {
	seen := make(map[string]bool, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}
