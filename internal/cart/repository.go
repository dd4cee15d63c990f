package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrLineNotFound = errors.New("cart line not found")

type Repository interface {
	GetByID(ctx context.Context, customerID string, lineID uuid.UUID) (*Line, error)
	GetByProduct(ctx context.Context, customerID string, productID uuid.UUID) (*Line, error)
	Upsert(ctx context.Context, line *Line) error
	UpdateQuantity(ctx context.Context, customerID string, lineID uuid.UUID, quantity int) error
	Delete(ctx context.Context, customerID string, lineID uuid.UUID) error
	ListWithProducts(ctx context.Context, customerID string) ([]LineWithProduct, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetByID(ctx context.Context, customerID string, lineID uuid.UUID) (*Line, error) {
	query := `
		SELECT id, customer_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE id = $1 AND customer_id = $2
	`

	var line Line
	err := r.db.QueryRow(ctx, query, lineID, customerID).Scan(
		&line.ID,
		&line.CustomerID,
		&line.ProductID,
		&line.Quantity,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart line %s: %w", lineID, err)
	}

	return &line, nil
}

func (r *postgresRepository) GetByProduct(ctx context.Context, customerID string, productID uuid.UUID) (*Line, error) {
	query := `
		SELECT id, customer_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE customer_id = $1 AND product_id = $2
	`

	var line Line
	err := r.db.QueryRow(ctx, query, customerID, productID).Scan(
		&line.ID,
		&line.CustomerID,
		&line.ProductID,
		&line.Quantity,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart line for product %s: %w", productID, err)
	}

	return &line, nil
}

// Upsert merges on the (customer_id, product_id) unique key: concurrent adds
// for the same product land on the same row.
func (r *postgresRepository) Upsert(ctx context.Context, line *Line) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO cart_items (id, customer_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (customer_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(ctx, query, line.ID, line.CustomerID, line.ProductID, line.Quantity, now)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert cart line for product %s: %w", line.ProductID, err)
	}
	return nil
}

func (r *postgresRepository) UpdateQuantity(ctx context.Context, customerID string, lineID uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $1, updated_at = $2
		WHERE id = $3 AND customer_id = $4
	`

	cmdTag, err := r.db.Exec(ctx, query, quantity, time.Now().UTC(), lineID, customerID)
	if err != nil {
		return fmt.Errorf("repository: failed to update cart line %s: %w", lineID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, customerID string, lineID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE id = $1 AND customer_id = $2`

	cmdTag, err := r.db.Exec(ctx, query, lineID, customerID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart line %s: %w", lineID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *postgresRepository) ListWithProducts(ctx context.Context, customerID string) ([]LineWithProduct, error) {
	query := `
		SELECT ci.id, ci.customer_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		       p.id, p.name, p.description, p.price, p.category, p.stock_quantity, p.is_active, p.image_url, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.customer_id = $1
		ORDER BY ci.created_at
	`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart lines for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	lines := make([]LineWithProduct, 0)
	for rows.Next() {
		var l LineWithProduct
		err := rows.Scan(
			&l.ID,
			&l.CustomerID,
			&l.ProductID,
			&l.Quantity,
			&l.CreatedAt,
			&l.UpdatedAt,
			&l.Product.ID,
			&l.Product.Name,
			&l.Product.Description,
			&l.Product.Price,
			&l.Product.Category,
			&l.Product.StockQuantity,
			&l.Product.IsActive,
			&l.Product.ImageURL,
			&l.Product.CreatedAt,
			&l.Product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart line for customer %s: %w", customerID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart lines for customer %s: %w", customerID, err)
	}

	return lines, nil
}
