package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/LaZyMugen/shopnexa-sub000/internal/catalog"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type StockHandler struct {
	Catalog catalog.Store
	Log     *zap.Logger
}

type BulkDecrementReq struct {
	Items []LineItemReq `json:"items"`
}

func (h *StockHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Post("/products/stock/decrement", h.bulkDecrement)
}

func (h *StockHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.List(ctx)
	if err != nil {
		h.Log.Error("list products", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// bulkDecrement is best effort per item: valid items are applied even
// when others in the batch are rejected.
func (h *StockHandler) bulkDecrement(w http.ResponseWriter, r *http.Request) {
	var req BulkDecrementReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no items"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items := make([]catalog.Adjustment, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, catalog.Adjustment{ProductID: it.ProductID, Qty: it.Qty})
	}
	res, err := h.Catalog.BulkDecrement(ctx, items)
	if err != nil {
		h.Log.Error("bulk decrement", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
