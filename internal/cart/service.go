package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mallkit/storefront/internal/apperr"
	"github.com/mallkit/storefront/internal/catalog"
	"github.com/mallkit/storefront/internal/metrics"
)

// ViewCache invalidates the cached /cart view after a mutation.
type ViewCache interface {
	Invalidate(ctx context.Context, customerID string)
}

type Service interface {
	AddItem(ctx context.Context, customerID string, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, customerID string, lineID uuid.UUID) error
	UpdateQuantity(ctx context.Context, customerID string, lineID uuid.UUID, quantity int) error
	GetCart(ctx context.Context, customerID string) ([]LineWithProduct, error)
}

type service struct {
	lines    Repository
	products catalog.Repository
	view     ViewCache
	metrics  *metrics.Metrics
}

func NewService(lines Repository, products catalog.Repository, view ViewCache, m *metrics.Metrics) Service {
	return &service{lines: lines, products: products, view: view, metrics: m}
}

// AddItem merges quantity into an existing line for the same product, or
// creates a new one. The stock check covers the merged quantity.
func (s *service) AddItem(ctx context.Context, customerID string, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return apperr.New(apperr.KindInvalidQuantity, "quantity must be at least 1")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return apperr.New(apperr.KindProductNotFound, "product not found")
		}
		log.Error().Err(err).Stringer("product_id", productID).Msg("cart: failed to load product")
		return apperr.Internal("failed to add item to cart")
	}

	if !product.IsActive {
		return &apperr.Error{
			Kind:    apperr.KindProductInactive,
			Message: fmt.Sprintf("product %q is no longer available", product.Name),
			Product: product.Name,
		}
	}

	newQuantity := quantity
	existing, err := s.lines.GetByProduct(ctx, customerID, productID)
	if err != nil && !errors.Is(err, ErrLineNotFound) {
		log.Error().Err(err).Str("customer_id", customerID).Msg("cart: failed to load existing line")
		return apperr.Internal("failed to add item to cart")
	}
	if existing != nil {
		newQuantity += existing.Quantity
	}

	if newQuantity > product.StockQuantity {
		return &apperr.Error{
			Kind:      apperr.KindInsufficientStock,
			Message:   fmt.Sprintf("insufficient stock for %q: %d available", product.Name, product.StockQuantity),
			Product:   product.Name,
			Available: product.StockQuantity,
			Requested: newQuantity,
		}
	}

	line := &Line{CustomerID: customerID, ProductID: productID, Quantity: newQuantity}
	if existing != nil {
		line.ID = existing.ID
	} else {
		id, err := uuid.NewV4()
		if err != nil {
			log.Error().Err(err).Msg("cart: failed to generate line id")
			return apperr.Internal("failed to add item to cart")
		}
		line.ID = id
	}

	if err := s.lines.Upsert(ctx, line); err != nil {
		log.Error().Err(err).Str("customer_id", customerID).Stringer("product_id", productID).Msg("cart: failed to upsert line")
		return apperr.Internal("failed to add item to cart")
	}

	s.view.Invalidate(ctx, customerID)
	s.metrics.CartMutation("add")
	log.Info().Str("customer_id", customerID).Stringer("product_id", productID).Int("quantity", newQuantity).Msg("cart: item added")
	return nil
}

func (s *service) RemoveItem(ctx context.Context, customerID string, lineID uuid.UUID) error {
	if err := s.lines.Delete(ctx, customerID, lineID); err != nil {
		if errors.Is(err, ErrLineNotFound) {
			return apperr.New(apperr.KindNotFound, "cart item not found")
		}
		log.Error().Err(err).Str("customer_id", customerID).Stringer("line_id", lineID).Msg("cart: failed to delete line")
		return apperr.Internal("failed to remove item from cart")
	}

	s.view.Invalidate(ctx, customerID)
	s.metrics.CartMutation("remove")
	return nil
}

// UpdateQuantity overwrites the line's quantity (not additive, unlike AddItem)
// after re-validating against the product's current stock.
func (s *service) UpdateQuantity(ctx context.Context, customerID string, lineID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return apperr.New(apperr.KindInvalidQuantity, "quantity must be at least 1")
	}

	line, err := s.lines.GetByID(ctx, customerID, lineID)
	if err != nil {
		if errors.Is(err, ErrLineNotFound) {
			return apperr.New(apperr.KindNotFound, "cart item not found")
		}
		log.Error().Err(err).Str("customer_id", customerID).Stringer("line_id", lineID).Msg("cart: failed to load line")
		return apperr.Internal("failed to update quantity")
	}

	product, err := s.products.GetByID(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return apperr.New(apperr.KindProductNotFound, "product not found")
		}
		log.Error().Err(err).Stringer("product_id", line.ProductID).Msg("cart: failed to load product")
		return apperr.Internal("failed to update quantity")
	}

	if quantity > product.StockQuantity {
		return &apperr.Error{
			Kind:      apperr.KindInsufficientStock,
			Message:   fmt.Sprintf("insufficient stock for %q: %d available", product.Name, product.StockQuantity),
			Product:   product.Name,
			Available: product.StockQuantity,
			Requested: quantity,
		}
	}

	if err := s.lines.UpdateQuantity(ctx, customerID, lineID, quantity); err != nil {
		if errors.Is(err, ErrLineNotFound) {
			return apperr.New(apperr.KindNotFound, "cart item not found")
		}
		log.Error().Err(err).Str("customer_id", customerID).Stringer("line_id", lineID).Msg("cart: failed to update quantity")
		return apperr.Internal("failed to update quantity")
	}

	s.view.Invalidate(ctx, customerID)
	s.metrics.CartMutation("update")
	return nil
}

func (s *service) GetCart(ctx context.Context, customerID string) ([]LineWithProduct, error) {
	lines, err := s.lines.ListWithProducts(ctx, customerID)
	if err != nil {
		log.Error().Err(err).Str("customer_id", customerID).Msg("cart: failed to list lines")
		return nil, apperr.Internal("failed to load cart")
	}
	return lines, nil
}
