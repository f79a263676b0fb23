package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/LaZyMugen/shopnexa-sub000/internal/catalog"
	"github.com/LaZyMugen/shopnexa-sub000/internal/orders"
)

// LineItemReq accepts the loose field shapes seen from clients
// (product_id or id, quantity or qty) and normalizes them in one place.
type LineItemReq struct {
	ProductID string
	Qty       int
}

func (l *LineItemReq) UnmarshalJSON(b []byte) error {
	var raw struct {
		ProductID string `json:"product_id"`
		ID        string `json:"id"`
		Qty       int    `json:"qty"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	l.ProductID = raw.ProductID
	if l.ProductID == "" {
		l.ProductID = raw.ID
	}
	l.Qty = raw.Qty
	if l.Qty == 0 {
		l.Qty = raw.Quantity
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Validation problems
// keep their message (it names the offending product); anything else is
// an internal error and stays generic.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, orders.ErrInvalidStatus),
		errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, catalog.ErrInsufficientStock):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
