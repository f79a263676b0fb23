package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/LaZyMugen/shopnexa-sub000/internal/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CatalogStore struct{ DB *pgxpool.Pool }

var _ catalog.Store = (*CatalogStore)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the
// decrement primitive can run standalone or inside a placement
// transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *CatalogStore) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, sku, name, price_cents, stock, created_at, updated_at
	                              FROM products ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *CatalogStore) FetchByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, sku, name, price_cents, stock, created_at, updated_at
	                              FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]catalog.Product, 0, len(ids))
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *CatalogStore) DecrementStock(ctx context.Context, productID string, qty int) (catalog.StockChange, error) {
	return decrementStock(ctx, s.DB, productID, qty)
}

// decrementStock is the single stock writer: check and write in one
// conditional update so concurrent decrements can never drive stock
// negative. Zero rows affected means either an unknown product or not
// enough stock; a follow-up read tells the two apart.
func decrementStock(ctx context.Context, q querier, productID string, qty int) (catalog.StockChange, error) {
	if qty < 1 {
		qty = 1
	}
	var newStock int
	err := q.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING stock`, productID, qty).Scan(&newStock)
	if err == nil {
		return catalog.StockChange{ProductID: productID, OldStock: newStock + qty, NewStock: newStock}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return catalog.StockChange{}, err
	}

	var stock int
	err = q.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.StockChange{}, fmt.Errorf("%w: %s", catalog.ErrNotFound, productID)
	}
	if err != nil {
		return catalog.StockChange{}, err
	}
	return catalog.StockChange{}, fmt.Errorf("%w: %s", catalog.ErrInsufficientStock, productID)
}

// BulkDecrement applies each adjustment as its own conditional update.
// Outcomes are reported per item; one rejected or failed item never
// rolls back the others.
func (s *CatalogStore) BulkDecrement(ctx context.Context, items []catalog.Adjustment) (catalog.BulkResult, error) {
	res := catalog.BulkResult{
		Updated: []catalog.StockChange{},
		Skipped: []catalog.SkippedItem{},
	}
	for _, it := range items {
		change, err := decrementStock(ctx, s.DB, it.ProductID, it.Qty)
		switch {
		case err == nil:
			res.Updated = append(res.Updated, change)
		case errors.Is(err, catalog.ErrNotFound):
			res.Skipped = append(res.Skipped, catalog.SkippedItem{ProductID: it.ProductID, Reason: catalog.SkipNotFound})
		case errors.Is(err, catalog.ErrInsufficientStock):
			res.Skipped = append(res.Skipped, catalog.SkippedItem{ProductID: it.ProductID, Reason: catalog.SkipInsufficientStock})
		case ctx.Err() != nil:
			return res, ctx.Err()
		default:
			res.Skipped = append(res.Skipped, catalog.SkippedItem{ProductID: it.ProductID, Reason: catalog.SkipWriteFailed})
		}
	}
	return res, nil
}
