package orders

import "context"

// Store persists orders. Implementations must make CreateOrder a single
// atomic unit: the header, every line and every stock decrement either
// all commit or none do.
type Store interface {
	// CreateOrder inserts the header and lines and decrements stock per
	// line through the catalog's conditional-decrement primitive. When
	// externalID is set and already known, the existing order is
	// returned with existed=true and nothing is written.
	CreateOrder(ctx context.Context, buyerID, externalID *string, lines []Line, totalCents int) (Order, []Line, bool, error)
	GetOrder(ctx context.Context, orderID string) (Order, []Line, error)
	// ListOrders returns orders newest first plus the total row count.
	ListOrders(ctx context.Context, limit, offset int) ([]Order, int, error)
	// UpdateStatus applies the transition graph against the current
	// status and fails with ErrInvalidTransition when it is not allowed.
	UpdateStatus(ctx context.Context, orderID string, to Status) (Order, Status, error)
}

// StatusCache is a read cache for order status, maintained best effort.
type StatusCache interface {
	SetStatus(ctx context.Context, orderID string, status Status)
	GetStatus(ctx context.Context, orderID string) (Status, bool)
}
