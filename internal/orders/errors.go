package orders

import "errors"

var (
	ErrEmptyOrder        = errors.New("orders: no line items")
	ErrNotFound          = errors.New("orders: not found")
	ErrInvalidStatus     = errors.New("orders: unrecognized status")
	ErrInvalidTransition = errors.New("orders: transition not allowed")
)
