package cart

import (
	"time"

	"github.com/gofrs/uuid"

	"github.com/mallkit/storefront/internal/catalog"
)

// Line is one (customer, product) quantity record prior to order commitment.
type Line struct {
	ID         uuid.UUID `json:"id"`
	CustomerID string    `json:"customer_id"`
	ProductID  uuid.UUID `json:"product_id"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type LineWithProduct struct {
	Line
	Product catalog.Product `json:"product"`
}
