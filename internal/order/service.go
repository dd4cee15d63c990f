package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mallkit/storefront/internal/apperr"
	"github.com/mallkit/storefront/internal/cart"
	"github.com/mallkit/storefront/internal/events"
	"github.com/mallkit/storefront/internal/metrics"
)

// CartReader is the slice of the cart store the order builder needs.
type CartReader interface {
	ListWithProducts(ctx context.Context, customerID string) ([]cart.LineWithProduct, error)
}

// ViewCache invalidates the cached /cart view once the cart is cleared by a
// successful commit.
type ViewCache interface {
	Invalidate(ctx context.Context, customerID string)
}

type CreateInput struct {
	Shipping  ShippingAddress
	OrderNote string
}

type Service interface {
	Create(ctx context.Context, customerID string, in CreateInput) (*Order, error)
	GetByID(ctx context.Context, customerID string, id uuid.UUID) (*Order, error)
	List(ctx context.Context, customerID string) ([]Order, error)
}

type service struct {
	orders    Repository
	carts     CartReader
	view      ViewCache
	publisher events.Publisher
	metrics   *metrics.Metrics
}

func NewService(orders Repository, carts CartReader, view ViewCache, publisher events.Publisher, m *metrics.Metrics) Service {
	return &service{orders: orders, carts: carts, view: view, publisher: publisher, metrics: m}
}

// Create snapshots the customer's cart into an immutable order. Validation is
// pure (no writes); the repository then commits order, lines, stock decrement
// and cart clear atomically. Prices are read from the live product at this
// moment and frozen into the lines.
func (s *service) Create(ctx context.Context, customerID string, in CreateInput) (*Order, error) {
	cartLines, err := s.carts.ListWithProducts(ctx, customerID)
	if err != nil {
		log.Error().Err(err).Str("customer_id", customerID).Msg("order: failed to load cart")
		return nil, apperr.Internal("failed to create order")
	}
	if len(cartLines) == 0 {
		return nil, apperr.New(apperr.KindEmptyCart, "cart is empty")
	}

	var totalAmount int64
	lines := make([]Line, 0, len(cartLines))
	for _, cl := range cartLines {
		product := cl.Product

		if !product.IsActive {
			return nil, &apperr.Error{
				Kind:    apperr.KindProductInactive,
				Message: fmt.Sprintf("product %q is no longer available", product.Name),
				Product: product.Name,
			}
		}
		if cl.Quantity > product.StockQuantity {
			return nil, &apperr.Error{
				Kind:      apperr.KindInsufficientStock,
				Message:   fmt.Sprintf("insufficient stock for %q: %d available, %d requested", product.Name, product.StockQuantity, cl.Quantity),
				Product:   product.Name,
				Available: product.StockQuantity,
				Requested: cl.Quantity,
			}
		}

		totalAmount += product.Price * int64(cl.Quantity)
		lines = append(lines, Line{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    cl.Quantity,
			UnitPrice:   product.Price,
		})
	}

	orderID, err := uuid.NewV4()
	if err != nil {
		log.Error().Err(err).Msg("order: failed to generate order id")
		return nil, apperr.Internal("failed to create order")
	}

	o := &Order{
		ID:          orderID,
		CustomerID:  customerID,
		Status:      StatusPending,
		TotalAmount: totalAmount,
		Shipping:    in.Shipping,
		OrderNote:   in.OrderNote,
		Lines:       lines,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		switch {
		case errors.Is(err, ErrLinesInsert):
			log.Error().Err(err).Stringer("order_id", orderID).Msg("order: line insert failed, transaction rolled back")
			return nil, apperr.New(apperr.KindOrderItemsCreationFailed, "failed to create order items")
		case errors.Is(err, ErrStockConflict):
			log.Warn().Err(err).Stringer("order_id", orderID).Msg("order: stock changed during commit")
			return nil, apperr.New(apperr.KindInsufficientStock, "stock changed while placing the order")
		default:
			log.Error().Err(err).Stringer("order_id", orderID).Msg("order: failed to create order")
			return nil, apperr.Internal("failed to create order")
		}
	}

	s.view.Invalidate(ctx, customerID)
	s.metrics.OrderCreated()

	eventLines := make([]events.OrderLine, 0, len(o.Lines))
	for _, line := range o.Lines {
		eventLines = append(eventLines, events.OrderLine{
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	s.publisher.Publish(events.EventOrderCreated, o.ID.String(), events.OrderCreatedPayload{
		OrderID:     o.ID.String(),
		CustomerID:  o.CustomerID,
		Lines:       eventLines,
		TotalAmount: o.TotalAmount,
	})

	log.Info().Stringer("order_id", o.ID).Str("customer_id", customerID).Int64("total_amount", totalAmount).Msg("order: created")
	return o, nil
}

func (s *service) GetByID(ctx context.Context, customerID string, id uuid.UUID) (*Order, error) {
	o, err := s.orders.GetByIDForCustomer(ctx, id, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("order: failed to fetch order")
		return nil, apperr.Internal("failed to load order")
	}
	return o, nil
}

func (s *service) List(ctx context.Context, customerID string) ([]Order, error) {
	orders, err := s.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		log.Error().Err(err).Str("customer_id", customerID).Msg("order: failed to list orders")
		return nil, apperr.Internal("failed to load orders")
	}
	return orders, nil
}
