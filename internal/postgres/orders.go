package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/LaZyMugen/shopnexa-sub000/internal/orders"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderStore struct{ DB *pgxpool.Pool }

var _ orders.Store = (*OrderStore)(nil)

// CreateOrder writes the header, the lines and the stock decrements in
// one transaction. A decrement re-check failure (stock changed since
// validation) rolls back everything, so a failed placement leaves no
// trace.
func (s *OrderStore) CreateOrder(ctx context.Context, buyerID, externalID *string, lines []orders.Line, totalCents int) (orders.Order, []orders.Line, bool, error) {
	// idempotency short-circuit by external id, DB is the truth
	if externalID != nil {
		var existingID string
		err := s.DB.QueryRow(ctx, `SELECT id FROM orders WHERE external_id = $1`, *externalID).Scan(&existingID)
		if err == nil {
			order, existing, err := s.GetOrder(ctx, existingID)
			return order, existing, true, err
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return orders.Order{}, nil, false, err
		}
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return orders.Order{}, nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order := orders.Order{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		BuyerID:    buyerID,
		Status:     orders.StatusPending,
		TotalCents: totalCents,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, external_id, buyer_id, status, total_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		order.ID, externalID, buyerID, order.Status, totalCents).Scan(&order.CreatedAt)
	if err != nil {
		return orders.Order{}, nil, false, err
	}

	out := make([]orders.Line, 0, len(lines))
	for _, l := range lines {
		l.ID = uuid.NewString()
		l.OrderID = order.ID
		// decrement first so a vanished product surfaces as not-found
		// rather than a foreign key violation on the line insert
		if _, err := decrementStock(ctx, tx, l.ProductID, l.Qty); err != nil {
			return orders.Order{}, nil, false, err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, qty, price_cents)
			VALUES ($1, $2, $3, $4, $5)`,
			l.ID, l.OrderID, l.ProductID, l.Qty, l.PriceCents); err != nil {
			return orders.Order{}, nil, false, err
		}
		out = append(out, l)
	}

	if err := tx.Commit(ctx); err != nil {
		return orders.Order{}, nil, false, err
	}
	return order, out, false, nil
}

func (s *OrderStore) GetOrder(ctx context.Context, orderID string) (orders.Order, []orders.Line, error) {
	var o orders.Order
	err := s.DB.QueryRow(ctx, `
		SELECT id, external_id, buyer_id, status, total_cents, created_at
		FROM orders WHERE id = $1`, orderID).
		Scan(&o.ID, &o.ExternalID, &o.BuyerID, &o.Status, &o.TotalCents, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Order{}, nil, fmt.Errorf("%w: %s", orders.ErrNotFound, orderID)
	}
	if err != nil {
		return orders.Order{}, nil, err
	}

	rows, err := s.DB.Query(ctx, `
		SELECT id, order_id, product_id, qty, price_cents
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return orders.Order{}, nil, err
	}
	defer rows.Close()

	var lines []orders.Line
	for rows.Next() {
		var l orders.Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Qty, &l.PriceCents); err != nil {
			return orders.Order{}, nil, err
		}
		lines = append(lines, l)
	}
	return o, lines, rows.Err()
}

func (s *OrderStore) ListOrders(ctx context.Context, limit, offset int) ([]orders.Order, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, `
		SELECT id, external_id, buyer_id, status, total_cents, created_at
		FROM orders ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]orders.Order, 0, limit)
	for rows.Next() {
		var o orders.Order
		if err := rows.Scan(&o.ID, &o.ExternalID, &o.BuyerID, &o.Status, &o.TotalCents, &o.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// UpdateStatus locks the row, checks the transition graph against the
// current status and writes the new one, all in one transaction.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID string, to orders.Status) (orders.Order, orders.Status, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return orders.Order{}, "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var o orders.Order
	err = tx.QueryRow(ctx, `
		SELECT id, external_id, buyer_id, status, total_cents, created_at
		FROM orders WHERE id = $1 FOR UPDATE`, orderID).
		Scan(&o.ID, &o.ExternalID, &o.BuyerID, &o.Status, &o.TotalCents, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Order{}, "", fmt.Errorf("%w: %s", orders.ErrNotFound, orderID)
	}
	if err != nil {
		return orders.Order{}, "", err
	}

	from := o.Status
	if !orders.CanTransition(from, to) {
		return orders.Order{}, "", fmt.Errorf("%w: %s -> %s", orders.ErrInvalidTransition, from, to)
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, to); err != nil {
		return orders.Order{}, "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return orders.Order{}, "", err
	}
	o.Status = to
	return o, from, nil
}
