package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"

	"github.com/mallkit/storefront/internal/apperr"
	"github.com/mallkit/storefront/internal/catalog"
)

type CatalogHandler struct {
	products catalog.Repository
}

func NewCatalogHandler(products catalog.Repository) *CatalogHandler {
	return &CatalogHandler{products: products}
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	filter := catalog.ListFilter{
		Category: q.Get("category"),
		Search:   q.Get("q"),
		Sort:     catalog.ParseSort(q.Get("sort")),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}

	products, err := h.products.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "products": products})
}

func (h *CatalogHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.New(apperr.KindProductNotFound, "product not found"))
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, apperr.New(apperr.KindProductNotFound, "product not found"))
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": p})
}
