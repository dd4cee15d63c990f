// Package payment applies the outcome of an out-of-band payment attempt to an
// order, defending against replayed callbacks, cross-customer access and
// tampered amounts.
package payment

import (
	"context"
	"errors"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mallkit/storefront/internal/apperr"
	"github.com/mallkit/storefront/internal/events"
	"github.com/mallkit/storefront/internal/metrics"
	"github.com/mallkit/storefront/internal/order"
)

type Service interface {
	Confirm(ctx context.Context, customerID string, orderID uuid.UUID, paymentRef string, paidAmount int64) error
	MarkFailed(ctx context.Context, customerID string, orderID uuid.UUID) error
}

type service struct {
	orders    order.Repository
	publisher events.Publisher
	metrics   *metrics.Metrics
}

func NewService(orders order.Repository, publisher events.Publisher, m *metrics.Metrics) Service {
	return &service{orders: orders, publisher: publisher, metrics: m}
}

// Confirm transitions the order to paid exactly once. Check order matters:
// ownership, then the idempotency guard, then amount integrity, then the
// transition table.
func (s *service) Confirm(ctx context.Context, customerID string, orderID uuid.UUID, paymentRef string, paidAmount int64) error {
	o, err := s.orders.GetByIDForCustomer(ctx, orderID, customerID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "order not found")
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("payment: failed to load order")
		return apperr.Internal("failed to confirm payment")
	}

	if o.Status == order.StatusPaid {
		return apperr.New(apperr.KindAlreadyPaid, "order is already paid")
	}

	if paidAmount != o.TotalAmount {
		log.Warn().
			Stringer("order_id", orderID).
			Int64("paid_amount", paidAmount).
			Int64("total_amount", o.TotalAmount).
			Msg("payment: paid amount does not match order total")
		return apperr.Newf(apperr.KindAmountMismatch, "paid amount %d does not match order total %d", paidAmount, o.TotalAmount)
	}

	if !order.CanTransition(o.Status, order.StatusPaid) {
		return apperr.Newf(apperr.KindInvalidStatusTransition, "cannot mark order as paid from status %s", o.Status)
	}

	if err := s.orders.UpdateStatus(ctx, orderID, order.StatusPaid); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "order not found")
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("payment: failed to update order status")
		return apperr.Internal("failed to confirm payment")
	}

	s.metrics.PaymentConfirmed()
	s.publisher.Publish(events.EventPaymentConfirmed, orderID.String(), events.PaymentConfirmedPayload{
		OrderID:          orderID.String(),
		PaymentReference: paymentRef,
		Amount:           paidAmount,
	})

	log.Info().Stringer("order_id", orderID).Str("payment_reference", paymentRef).Msg("payment: confirmed")
	return nil
}

// MarkFailed records a failed payment attempt. Repeating it is harmless; the
// transition table still blocks it for orders that already reached paid or a
// fulfillment state.
func (s *service) MarkFailed(ctx context.Context, customerID string, orderID uuid.UUID) error {
	o, err := s.orders.GetByIDForCustomer(ctx, orderID, customerID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "order not found")
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("payment: failed to load order")
		return apperr.Internal("failed to mark payment failed")
	}

	if !order.CanTransition(o.Status, order.StatusPaymentFailed) {
		return apperr.Newf(apperr.KindInvalidStatusTransition, "cannot mark order as payment_failed from status %s", o.Status)
	}

	if err := s.orders.UpdateStatus(ctx, orderID, order.StatusPaymentFailed); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "order not found")
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("payment: failed to update order status")
		return apperr.Internal("failed to mark payment failed")
	}

	s.metrics.PaymentFailed()
	s.publisher.Publish(events.EventPaymentFailed, orderID.String(), events.PaymentFailedPayload{
		OrderID: orderID.String(),
	})

	log.Info().Stringer("order_id", orderID).Msg("payment: marked failed")
	return nil
}
