package order_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallkit/storefront/internal/apperr"
	"github.com/mallkit/storefront/internal/cart"
	"github.com/mallkit/storefront/internal/catalog"
	"github.com/mallkit/storefront/internal/events"
	"github.com/mallkit/storefront/internal/metrics"
	"github.com/mallkit/storefront/internal/order"
)

type mockOrderRepo struct {
	createFunc       func(ctx context.Context, o *order.Order) error
	getForCustFunc   func(ctx context.Context, id uuid.UUID, customerID string) (*order.Order, error)
	listFunc         func(ctx context.Context, customerID string) ([]order.Order, error)
	updateStatusFunc func(ctx context.Context, id uuid.UUID, newStatus order.Status) error
}

func (m *mockOrderRepo) Create(ctx context.Context, o *order.Order) error {
	return m.createFunc(ctx, o)
}

func (m *mockOrderRepo) GetByIDForCustomer(ctx context.Context, id uuid.UUID, customerID string) (*order.Order, error) {
	return m.getForCustFunc(ctx, id, customerID)
}

func (m *mockOrderRepo) ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	return m.listFunc(ctx, customerID)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus order.Status) error {
	return m.updateStatusFunc(ctx, id, newStatus)
}

type mockCartReader struct {
	lines []cart.LineWithProduct
	err   error
}

func (m *mockCartReader) ListWithProducts(ctx context.Context, customerID string) ([]cart.LineWithProduct, error) {
	return m.lines, m.err
}

type mockViewCache struct {
	invalidated []string
}

func (m *mockViewCache) Invalidate(_ context.Context, customerID string) {
	m.invalidated = append(m.invalidated, customerID)
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

const customerID = "cust_1"

func cartLine(t *testing.T, name string, price int64, stock, qty int, active bool) cart.LineWithProduct {
	t.Helper()
	productID, err := uuid.NewV4()
	require.NoError(t, err)
	lineID, err := uuid.NewV4()
	require.NoError(t, err)
	return cart.LineWithProduct{
		Line: cart.Line{ID: lineID, CustomerID: customerID, ProductID: productID, Quantity: qty},
		Product: catalog.Product{
			ID:            productID,
			Name:          name,
			Price:         price,
			StockQuantity: stock,
			IsActive:      active,
		},
	}
}

func shipping() order.CreateInput {
	return order.CreateInput{
		Shipping: order.ShippingAddress{
			Name:       "Kim",
			Phone:      "010-0000-0000",
			Address:    "1 Teheran-ro",
			PostalCode: "06000",
		},
	}
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name     string
		lines    []cart.LineWithProduct
		wantKind apperr.Kind
	}{
		{
			name:     "empty_cart",
			lines:    nil,
			wantKind: apperr.KindEmptyCart,
		},
		{
			name:     "inactive_product",
			lines:    []cart.LineWithProduct{cartLine(t, "Keyboard", 10000, 5, 2, false)},
			wantKind: apperr.KindProductInactive,
		},
		{
			name:     "insufficient_stock",
			lines:    []cart.LineWithProduct{cartLine(t, "Keyboard", 10000, 1, 2, true)},
			wantKind: apperr.KindInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockOrderRepo{
				createFunc: func(ctx context.Context, o *order.Order) error {
					t.Fatal("validation failure must not reach the repository")
					return nil
				},
			}
			svc := order.NewService(repo, &mockCartReader{lines: tt.lines}, &mockViewCache{}, events.NopPublisher{}, newTestMetrics())

			_, err := svc.Create(context.Background(), customerID, shipping())
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
		})
	}
}

func TestService_Create_SnapshotsCurrentPrices(t *testing.T) {
	keyboard := cartLine(t, "Keyboard", 10000, 5, 2, true)
	mouse := cartLine(t, "Mouse", 5000, 10, 3, true)

	var created *order.Order
	repo := &mockOrderRepo{
		createFunc: func(ctx context.Context, o *order.Order) error {
			created = o
			return nil
		},
	}
	view := &mockViewCache{}
	pub := &recordingPublisher{}
	svc := order.NewService(repo, &mockCartReader{lines: []cart.LineWithProduct{keyboard, mouse}}, view, pub, newTestMetrics())

	o, err := svc.Create(context.Background(), customerID, shipping())
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, int64(2*10000+3*5000), o.TotalAmount)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "Keyboard", o.Lines[0].ProductName)
	assert.Equal(t, int64(10000), o.Lines[0].UnitPrice)
	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.Equal(t, "Mouse", o.Lines[1].ProductName)
	assert.Equal(t, int64(5000), o.Lines[1].UnitPrice)

	assert.Equal(t, []string{customerID}, view.invalidated, "successful commit invalidates the cart view")
	assert.Equal(t, []string{events.EventOrderCreated}, pub.eventTypes)
}

func TestService_Create_SnapshotSurvivesPriceChange(t *testing.T) {
	line := cartLine(t, "Keyboard", 10000, 5, 2, true)

	repo := &mockOrderRepo{
		createFunc: func(ctx context.Context, o *order.Order) error { return nil },
	}
	svc := order.NewService(repo, &mockCartReader{lines: []cart.LineWithProduct{line}}, &mockViewCache{}, events.NopPublisher{}, newTestMetrics())

	o, err := svc.Create(context.Background(), customerID, shipping())
	require.NoError(t, err)

	// A later catalog price change must not leak into the committed snapshot.
	line.Product.Price = 99999
	assert.Equal(t, int64(10000), o.Lines[0].UnitPrice)
	assert.Equal(t, int64(20000), o.TotalAmount)
}

func TestService_Create_RepositoryFailures(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		wantKind  apperr.Kind
	}{
		{
			name:      "line_insert_failure",
			createErr: order.ErrLinesInsert,
			wantKind:  apperr.KindOrderItemsCreationFailed,
		},
		{
			name:      "stock_conflict_at_commit",
			createErr: order.ErrStockConflict,
			wantKind:  apperr.KindInsufficientStock,
		},
		{
			name:      "storage_failure",
			createErr: assert.AnError,
			wantKind:  apperr.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockOrderRepo{
				createFunc: func(ctx context.Context, o *order.Order) error { return tt.createErr },
			}
			view := &mockViewCache{}
			pub := &recordingPublisher{}
			svc := order.NewService(repo, &mockCartReader{lines: []cart.LineWithProduct{cartLine(t, "Keyboard", 10000, 5, 2, true)}}, view, pub, newTestMetrics())

			_, err := svc.Create(context.Background(), customerID, shipping())
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			assert.Empty(t, view.invalidated, "failed commit must not invalidate the cart view")
			assert.Empty(t, pub.eventTypes, "failed commit must not publish events")
		})
	}
}

func TestService_GetByID_Ownership(t *testing.T) {
	orderID, err := uuid.NewV4()
	require.NoError(t, err)

	repo := &mockOrderRepo{
		getForCustFunc: func(ctx context.Context, id uuid.UUID, cID string) (*order.Order, error) {
			// The repository scopes by customer, so a foreign order surfaces
			// as not found.
			return nil, order.ErrNotFound
		},
	}
	svc := order.NewService(repo, &mockCartReader{}, &mockViewCache{}, events.NopPublisher{}, newTestMetrics())

	_, err = svc.GetByID(context.Background(), "cust_other", orderID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
