package payment_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallkit/storefront/internal/apperr"
	"github.com/mallkit/storefront/internal/events"
	"github.com/mallkit/storefront/internal/metrics"
	"github.com/mallkit/storefront/internal/order"
	"github.com/mallkit/storefront/internal/payment"
)

const (
	customerID = "cust_1"
	paymentRef = "pay_abc123"
)

// stubOrderRepo holds a single order scoped to customerID, mimicking the
// ownership filter of the real repository.
type stubOrderRepo struct {
	order         *order.Order
	statusUpdates []order.Status
	updateErr     error
}

func (s *stubOrderRepo) Create(ctx context.Context, o *order.Order) error {
	return nil
}

func (s *stubOrderRepo) GetByIDForCustomer(ctx context.Context, id uuid.UUID, cID string) (*order.Order, error) {
	if s.order == nil || s.order.ID != id || s.order.CustomerID != cID {
		return nil, order.ErrNotFound
	}
	cp := *s.order
	return &cp, nil
}

func (s *stubOrderRepo) ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus order.Status) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.statusUpdates = append(s.statusUpdates, newStatus)
	s.order.Status = newStatus
	return nil
}

type recordingPublisher struct {
	eventTypes []string
}

func (p *recordingPublisher) Publish(eventType, correlationID string, payload any) {
	p.eventTypes = append(p.eventTypes, eventType)
}

func newTestMetrics() *metrics.Metrics {
	return metrics.NewWithRegisterer(prometheus.NewRegistry())
}

func pendingOrder(t *testing.T, total int64) *order.Order {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return &order.Order{
		ID:          id,
		CustomerID:  customerID,
		Status:      order.StatusPending,
		TotalAmount: total,
	}
}

func TestService_Confirm_Idempotency(t *testing.T) {
	repo := &stubOrderRepo{order: pendingOrder(t, 20000)}
	pub := &recordingPublisher{}
	svc := payment.NewService(repo, pub, newTestMetrics())

	require.NoError(t, svc.Confirm(context.Background(), customerID, repo.order.ID, paymentRef, 20000))
	assert.Equal(t, order.StatusPaid, repo.order.Status)

	// The duplicate callback must hit the idempotency guard, not update again.
	err := svc.Confirm(context.Background(), customerID, repo.order.ID, paymentRef, 20000)
	assert.Equal(t, apperr.KindAlreadyPaid, apperr.KindOf(err))
	assert.Equal(t, []order.Status{order.StatusPaid}, repo.statusUpdates)
	assert.Equal(t, []string{events.EventPaymentConfirmed}, pub.eventTypes)
}

func TestService_Confirm_AmountIntegrity(t *testing.T) {
	repo := &stubOrderRepo{order: pendingOrder(t, 20000)}
	svc := payment.NewService(repo, events.NopPublisher{}, newTestMetrics())

	err := svc.Confirm(context.Background(), customerID, repo.order.ID, paymentRef, 19999)
	assert.Equal(t, apperr.KindAmountMismatch, apperr.KindOf(err))
	assert.Equal(t, order.StatusPending, repo.order.Status, "mismatch must leave status unchanged")
	assert.Empty(t, repo.statusUpdates)
}

func TestService_Confirm_OwnershipIsolation(t *testing.T) {
	repo := &stubOrderRepo{order: pendingOrder(t, 20000)}
	svc := payment.NewService(repo, events.NopPublisher{}, newTestMetrics())

	// Correct amount, wrong customer: still not found.
	err := svc.Confirm(context.Background(), "cust_other", repo.order.ID, paymentRef, 20000)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, order.StatusPending, repo.order.Status)
}

func TestService_Confirm_RetryAfterFailure(t *testing.T) {
	repo := &stubOrderRepo{order: pendingOrder(t, 20000)}
	repo.order.Status = order.StatusPaymentFailed
	svc := payment.NewService(repo, events.NopPublisher{}, newTestMetrics())

	require.NoError(t, svc.Confirm(context.Background(), customerID, repo.order.ID, paymentRef, 20000))
	assert.Equal(t, order.StatusPaid, repo.order.Status)
}

func TestService_Confirm_RejectsFulfillmentStates(t *testing.T) {
	repo := &stubOrderRepo{order: pendingOrder(t, 20000)}
	repo.order.Status = order.StatusCancelled
	svc := payment.NewService(repo, events.NopPublisher{}, newTestMetrics())

	err := svc.Confirm(context.Background(), customerID, repo.order.ID, paymentRef, 20000)
	assert.Equal(t, apperr.KindInvalidStatusTransition, apperr.KindOf(err))
}

func TestService_MarkFailed(t *testing.T) {
	t.Run("pending_to_payment_failed", func(t *testing.T) {
		repo := &stubOrderRepo{order: pendingOrder(t, 20000)}
		pub := &recordingPublisher{}
		svc := payment.NewService(repo, pub, newTestMetrics())

		require.NoError(t, svc.MarkFailed(context.Background(), customerID, repo.order.ID))
		assert.Equal(t, order.StatusPaymentFailed, repo.order.Status)
		assert.Equal(t, []string{events.EventPaymentFailed}, pub.eventTypes)
	})

	t.Run("repeat_is_harmless", func(t *testing.T) {
		repo := &stubOrderRepo{order: pendingOrder(t, 20000)}
		svc := payment.NewService(repo, events.NopPublisher{}, newTestMetrics())

		require.NoError(t, svc.MarkFailed(context.Background(), customerID, repo.order.ID))
		require.NoError(t, svc.MarkFailed(context.Background(), customerID, repo.order.ID))
		assert.Equal(t, order.StatusPaymentFailed, repo.order.Status)
	})

	t.Run("paid_order_cannot_fail", func(t *testing.T) {
		repo := &stubOrderRepo{order: pendingOrder(t, 20000)}
		repo.order.Status = order.StatusPaid
		svc := payment.NewService(repo, events.NopPublisher{}, newTestMetrics())

		err := svc.MarkFailed(context.Background(), customerID, repo.order.ID)
		assert.Equal(t, apperr.KindInvalidStatusTransition, apperr.KindOf(err))
		assert.Equal(t, order.StatusPaid, repo.order.Status)
	})

	t.Run("not_owned", func(t *testing.T) {
		repo := &stubOrderRepo{order: pendingOrder(t, 20000)}
		svc := payment.NewService(repo, events.NopPublisher{}, newTestMetrics())

		err := svc.MarkFailed(context.Background(), "cust_other", repo.order.ID)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}
