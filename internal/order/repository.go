package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrLinesInsert marks a failure while inserting order lines; the
	// surrounding transaction removes the order row again.
	ErrLinesInsert = errors.New("failed to insert order lines")
	// ErrStockConflict means a product's stock dropped below the ordered
	// quantity between the pre-check and the commit.
	ErrStockConflict = errors.New("stock changed during commit")
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByIDForCustomer(ctx context.Context, id uuid.UUID, customerID string) (*Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `id, customer_id, status, total_amount,
	shipping_name, shipping_phone, shipping_address, shipping_address_detail, shipping_postal_code,
	order_note, created_at, updated_at`

// Create commits the order, its lines, the stock decrement, and the cart
// clear as one transaction. Either everything lands or nothing does, so no
// orphaned order row is ever visible.
func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Error().Err(rbErr).Stringer("order_id", o.ID).Msg("repository: failed to rollback order transaction")
		}
	}()

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	queryOrder := `
		INSERT INTO orders (id, customer_id, status, total_amount,
			shipping_name, shipping_phone, shipping_address, shipping_address_detail, shipping_postal_code,
			order_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.Exec(ctx, queryOrder,
		o.ID,
		o.CustomerID,
		string(o.Status),
		o.TotalAmount,
		o.Shipping.Name,
		o.Shipping.Phone,
		o.Shipping.Address,
		o.Shipping.AddressDetail,
		o.Shipping.PostalCode,
		o.OrderNote,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryLine := `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range o.Lines {
		line := &o.Lines[i]

		lineID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("%w: %v", ErrLinesInsert, genErr)
		}
		line.ID = lineID
		line.OrderID = o.ID
		line.CreatedAt = now

		_, err = tx.Exec(ctx, queryLine,
			line.ID,
			line.OrderID,
			line.ProductID,
			line.ProductName,
			line.Quantity,
			line.UnitPrice,
			line.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrLinesInsert, err)
		}
	}

	// Reserve stock inside the same transaction. The guard turns the earlier
	// optimistic check into a real reservation, closing the oversell race.
	queryStock := `
		UPDATE products
		SET stock_quantity = stock_quantity - $1, updated_at = $2
		WHERE id = $3 AND stock_quantity >= $1
	`
	for _, line := range o.Lines {
		cmdTag, err := tx.Exec(ctx, queryStock, line.Quantity, now, line.ProductID)
		if err != nil {
			return fmt.Errorf("repository: failed to decrement stock for product %s: %w", line.ProductID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("%w: product %s", ErrStockConflict, line.ProductID)
		}
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE customer_id = $1`, o.CustomerID); err != nil {
		return fmt.Errorf("repository: failed to clear cart for customer %s: %w", o.CustomerID, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit order transaction: %w", err)
	}
	return nil
}

// GetByIDForCustomer scopes the lookup to the owning customer: an order that
// exists but belongs to someone else is indistinguishable from one that does
// not exist.
func (r *postgresRepository) GetByIDForCustomer(ctx context.Context, id uuid.UUID, customerID string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND customer_id = $2`

	var o Order
	err := r.db.QueryRow(ctx, query, id, customerID).Scan(
		&o.ID,
		&o.CustomerID,
		&o.Status,
		&o.TotalAmount,
		&o.Shipping.Name,
		&o.Shipping.Phone,
		&o.Shipping.Address,
		&o.Shipping.AddressDetail,
		&o.Shipping.PostalCode,
		&o.OrderNote,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %s: %w", id, err)
	}

	queryLines := `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1
	`
	rows, err := r.db.Query(ctx, queryLines, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order lines for order %s: %w", id, err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var line Line
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.ProductName,
			&line.Quantity,
			&line.UnitPrice,
			&line.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order line for order %s: %w", id, err)
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order lines for order %s: %w", id, err)
	}

	o.Lines = lines
	return &o, nil
}

func (r *postgresRepository) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for rows.Next() {
		var o Order
		err := rows.Scan(
			&o.ID,
			&o.CustomerID,
			&o.Status,
			&o.TotalAmount,
			&o.Shipping.Name,
			&o.Shipping.Phone,
			&o.Shipping.Address,
			&o.Shipping.AddressDetail,
			&o.Shipping.PostalCode,
			&o.OrderNote,
			&o.CreatedAt,
			&o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for customer %s: %w", customerID, err)
		}
		o.Lines = make([]Line, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders for customer %s: %w", customerID, err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	queryLines := `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = ANY($1)
	`
	lineRows, err := r.db.Query(ctx, queryLines, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order lines for customer %s: %w", customerID, err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var line Line
		err := lineRows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.ProductName,
			&line.Quantity,
			&line.UnitPrice,
			&line.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order line for customer %s: %w", customerID, err)
		}
		if o, ok := ordersMap[line.OrderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}
	if err = lineRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order lines for customer %s: %w", customerID, err)
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		result = append(result, *ordersMap[id])
	}
	return result, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	cmdTag, err := r.db.Exec(ctx, query, string(newStatus), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
