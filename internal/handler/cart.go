package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mallkit/storefront/internal/cart"
)

// CartViewCache is the cache-aside store for the rendered cart response.
type CartViewCache interface {
	Get(ctx context.Context, customerID string) ([]byte, bool)
	Set(ctx context.Context, customerID string, payload []byte)
}

type CartHandler struct {
	svc  cart.Service
	view CartViewCache
}

func NewCartHandler(svc cart.Service, view CartViewCache) *CartHandler {
	return &CartHandler{svc: svc, view: view}
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartItemResponse struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	UnitPrice     int64  `json:"unit_price"`
	Quantity      int    `json:"quantity"`
	LineTotal     int64  `json:"line_total"`
	StockQuantity int    `json:"stock_quantity"`
	IsActive      bool   `json:"is_active"`
	ImageURL      string `json:"image_url,omitempty"`
}

type cartResponse struct {
	Success bool               `json:"success"`
	Items   []cartItemResponse `json:"items"`
	Total   int64              `json:"total"`
}

// GetCart serves the cached view when fresh, falling back to the database.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	custID := customerID(r)
	ctx := r.Context()

	if cached, ok := h.view.Get(ctx, custID); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(cached); err != nil {
			log.Error().Err(err).Msg("handler: failed to write cached cart view")
		}
		return
	}

	lines, err := h.svc.GetCart(ctx, custID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := cartResponse{Success: true, Items: make([]cartItemResponse, 0, len(lines))}
	for _, l := range lines {
		lineTotal := l.Product.Price * int64(l.Quantity)
		resp.Total += lineTotal
		resp.Items = append(resp.Items, cartItemResponse{
			ID:            l.ID.String(),
			ProductID:     l.ProductID.String(),
			ProductName:   l.Product.Name,
			UnitPrice:     l.Product.Price,
			Quantity:      l.Quantity,
			LineTotal:     lineTotal,
			StockQuantity: l.Product.StockQuantity,
			IsActive:      l.Product.IsActive,
			ImageURL:      l.Product.ImageURL,
		})
	}

	body, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to marshal cart view")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"})
		return
	}

	h.view.Set(ctx, custID, body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("handler: failed to write cart view")
	}
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "bad_request"})
		return
	}

	productID, err := uuid.FromString(req.ProductID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id", Code: "bad_request"})
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	if err := h.svc.AddItem(r.Context(), customerID(r), productID, quantity); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cart item id", Code: "bad_request"})
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "bad_request"})
		return
	}

	if err := h.svc.UpdateQuantity(r.Context(), customerID(r), lineID, req.Quantity); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cart item id", Code: "bad_request"})
		return
	}

	if err := h.svc.RemoveItem(r.Context(), customerID(r), lineID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
