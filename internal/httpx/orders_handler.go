package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/LaZyMugen/shopnexa-sub000/internal/orders"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type OrdersHandler struct {
	Svc *orders.Service
	Log *zap.Logger
}

type CreateOrderReq struct {
	BuyerID    *string       `json:"buyer_id,omitempty"`
	ExternalID *string       `json:"external_id,omitempty"`
	Items      []LineItemReq `json:"items"`
}

type CreateOrderResp struct {
	Order      orders.Order  `json:"order"`
	Lines      []orders.Line `json:"lines"`
	Idempotent bool          `json:"idempotent"`
}

type OrderResp struct {
	Order orders.Order  `json:"order"`
	Lines []orders.Line `json:"lines"`
}

type SetStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
	r.Get("/orders/{id}/status", h.getStatus)
	r.Put("/orders/{id}/status", h.setStatus)
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	// bound the whole multi-step placement; a timeout rolls back the tx
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items := make([]orders.LineRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, orders.LineRequest{ProductID: it.ProductID, Qty: it.Qty})
	}
	order, lines, existed, err := h.Svc.PlaceOrder(ctx, orders.PlaceRequest{
		BuyerID:    emptyToNil(req.BuyerID),
		ExternalID: emptyToNil(req.ExternalID),
		Items:      items,
	})
	if err != nil {
		h.Log.Warn("place order failed", zap.Error(err))
		writeError(w, err)
		return
	}

	code := http.StatusCreated
	if existed {
		code = http.StatusOK
	}
	writeJSON(w, code, CreateOrderResp{Order: order, Lines: lines, Idempotent: existed})
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	res, err := h.Svc.ListOrders(ctx, page, pageSize)
	if err != nil {
		h.Log.Error("list orders", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	order, lines, err := h.Svc.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderResp{Order: order, Lines: lines})
}

func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	st, err := h.Svc.GetStatus(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]orders.Status{"status": st})
}

func (h *OrdersHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	order, err := h.Svc.SetStatus(ctx, chi.URLParam(r, "id"), orders.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
