package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"

	"github.com/mallkit/storefront/internal/apperr"
	"github.com/mallkit/storefront/internal/order"
)

type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type createOrderRequest struct {
	ShippingAddress order.ShippingAddress `json:"shipping_address"`
	OrderNote       string                `json:"order_note"`
}

type createOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "bad_request"})
		return
	}

	o, err := h.svc.Create(r.Context(), customerID(r), order.CreateInput{
		Shipping:  req.ShippingAddress,
		OrderNote: req.OrderNote,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{Success: true, OrderID: o.ID.String()})
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.List(r.Context(), customerID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": orders})
}

func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.New(apperr.KindNotFound, "order not found"))
		return
	}

	o, err := h.svc.GetByID(r.Context(), customerID(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": o})
}
