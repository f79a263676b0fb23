package orders

import "time"

type Order struct {
	ID         string    `json:"id"`
	ExternalID *string   `json:"external_id,omitempty"`
	BuyerID    *string   `json:"buyer_id,omitempty"`
	Status     Status    `json:"status"` // see status.go
	TotalCents int       `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

// Line is one order item with the product price frozen at validation
// time. PriceCents never tracks later catalog price changes.
type Line struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

// LineRequest is one normalized (product, quantity) request.
type LineRequest struct {
	ProductID string
	Qty       int
}

// PlaceRequest is one order placement. ExternalID, when set, makes the
// placement idempotent: a repeat with the same id returns the order
// created the first time.
type PlaceRequest struct {
	BuyerID    *string
	ExternalID *string
	Items      []LineRequest
}

// Page is one page of order summaries plus the true total row count.
type Page struct {
	Orders   []Order `json:"orders"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}
