package orders

import (
	"testing"

	"github.com/LaZyMugen/shopnexa-sub000/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func products() []catalog.Product {
	return []catalog.Product{
		{ID: "p1", SKU: "SKU-1", Name: "widget", PriceCents: 1000, Stock: 2},
		{ID: "p2", SKU: "SKU-2", Name: "gadget", PriceCents: 250, Stock: 10},
	}
}

func TestPriceLines_EmptyOrder(t *testing.T) {
	_, _, err := PriceLines(nil, products())
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestPriceLines_UnknownProduct(t *testing.T) {
	_, _, err := PriceLines([]LineRequest{{ProductID: "nope", Qty: 1}}, products())
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.ErrorContains(t, err, "nope")
}

func TestPriceLines_InsufficientStock(t *testing.T) {
	_, _, err := PriceLines([]LineRequest{{ProductID: "p1", Qty: 3}}, products())
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.ErrorContains(t, err, "p1")
}

func TestPriceLines_DuplicateLinesCheckCombinedDemand(t *testing.T) {
	// each line alone fits in stock 2, together they do not
	_, _, err := PriceLines([]LineRequest{
		{ProductID: "p1", Qty: 1},
		{ProductID: "p1", Qty: 2},
	}, products())
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
}

func TestPriceLines_QtyFlooredToOne(t *testing.T) {
	lines, total, err := PriceLines([]LineRequest{
		{ProductID: "p2", Qty: 0},
		{ProductID: "p2", Qty: -5},
	}, products())
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].Qty)
	assert.Equal(t, 1, lines[1].Qty)
	assert.Equal(t, 500, total)
}

func TestPriceLines_TotalIsSumOfSnapshotSubtotals(t *testing.T) {
	lines, total, err := PriceLines([]LineRequest{
		{ProductID: "p1", Qty: 2},
		{ProductID: "p2", Qty: 4},
	}, products())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	sum := 0
	for _, l := range lines {
		sum += l.PriceCents * l.Qty
	}
	assert.Equal(t, sum, total)
	assert.Equal(t, 2*1000+4*250, total)
	assert.Equal(t, 1000, lines[0].PriceCents, "unit price is the catalog price at validation time")
}

func TestProductIDs_DedupesPreservingOrder(t *testing.T) {
	ids := ProductIDs([]LineRequest{
		{ProductID: "b"}, {ProductID: "a"}, {ProductID: "b"}, {ProductID: "c"},
	})
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}
